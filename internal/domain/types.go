package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Menu struct {
	ID        int64
	MenuDate  time.Time
	IsClosed  bool
	PhotoID   *int64
	CreatedAt time.Time
}

// MenuItem is one parsed item stored flat, tagged with its category name.
// Position keeps the order the item had in the pasted text.
type MenuItem struct {
	ID        int64
	MenuID    int64
	Category  string
	Name      string
	Price     decimal.Decimal
	Position  int
	CreatedAt time.Time
}

type Order struct {
	ID              int64
	MenuID          int64
	CustomerName    string
	Details         []*OrderDetail
	IsDelivery      bool
	DeliveryAddress string
	PhoneNumber     string
	Remarks         string
	IsPaid          bool
	TotalAmount     decimal.NullDecimal
	CreatedAt       time.Time
}

type OrderDetail struct {
	ID       int64
	OrderID  int64
	ItemName string
	Price    decimal.NullDecimal
	Quantity int
}

type Photo struct {
	ID         int64
	StorageKey string
	MimeType   string
	UploadedAt time.Time
}
