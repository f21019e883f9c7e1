package ordertext

import (
	"fmt"
	"time"
)

var malayWeekdays = [...]string{
	time.Sunday:    "Ahad",
	time.Monday:    "Isnin",
	time.Tuesday:   "Selasa",
	time.Wednesday: "Rabu",
	time.Thursday:  "Khamis",
	time.Friday:    "Jumaat",
	time.Saturday:  "Sabtu",
}

var malayMonths = [...]string{
	time.January:   "Januari",
	time.February:  "Februari",
	time.March:     "Mac",
	time.April:     "April",
	time.May:       "Mei",
	time.June:      "Jun",
	time.July:      "Julai",
	time.August:    "Ogos",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Disember",
}

// FormatDate renders t in the long Malay form used in the chat header,
// e.g. "Jumaat, 16 Oktober 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", malayWeekdays[t.Weekday()], t.Day(), malayMonths[t.Month()], t.Year())
}
