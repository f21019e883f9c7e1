package ordertext

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/menuorder/internal/domain"
)

// NoOrders is returned by Format when there is nothing to list.
const NoOrders = "No orders yet."

// Format renders orders as a chat message ready to paste: a dated header,
// the total collected, then one block per order in the order given. Callers
// that want unpaid orders first, or any other grouping, sort before calling.
func Format(orders []*domain.Order, menuDate time.Time) string {
	if len(orders) == 0 {
		return NoOrders
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Order List - %s*\n", FormatDate(menuDate))
	fmt.Fprintf(&b, "💰 *Total Collected: RM %s*\n\n", TotalCollected(orders).StringFixed(2))

	for i, o := range orders {
		if o == nil {
			continue
		}
		writeOrder(&b, i+1, o)
	}

	return b.String()
}

// TotalCollected sums the order totals. Orders without a total count as zero.
func TotalCollected(orders []*domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o != nil && o.TotalAmount.Valid {
			total = total.Add(o.TotalAmount.Decimal)
		}
	}
	return total
}

func writeOrder(b *strings.Builder, n int, o *domain.Order) {
	fmt.Fprintf(b, "%d. *%s*", n, o.CustomerName)
	if tag := priceTag(o.TotalAmount); tag != "" {
		b.WriteString(" " + tag)
	}
	if o.IsDelivery {
		b.WriteString(" 🚚")
	}
	b.WriteString("\n")

	for _, d := range o.Details {
		if d == nil || d.Quantity <= 0 {
			continue
		}
		b.WriteString("   • " + d.ItemName + " ")
		if tag := priceTag(d.Price); tag != "" {
			b.WriteString(tag + " ")
		}
		fmt.Fprintf(b, "× %d\n", d.Quantity)
	}

	if o.IsDelivery && o.DeliveryAddress != "" {
		b.WriteString("   📍 " + o.DeliveryAddress + "\n")
	}
	if o.Remarks != "" {
		b.WriteString("   📝 " + o.Remarks + "\n")
	}
	if o.IsPaid {
		b.WriteString("   ✅ Paid\n")
	}

	b.WriteString("\n")
}

// priceTag renders "(RM 8.50)"; absent and zero amounts render nothing.
func priceTag(amount decimal.NullDecimal) string {
	if !amount.Valid || amount.Decimal.IsZero() {
		return ""
	}
	return "(RM " + amount.Decimal.StringFixed(2) + ")"
}
