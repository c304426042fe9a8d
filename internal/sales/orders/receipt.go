package orders

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pharmapos/pharmapos/internal/sales/customers"
)

// Receipt renders a fixed-width till receipt. Amounts are grouped with
// locale-aware thousand separators for the printed copy.
func Receipt(order *SalesOrder, customer customers.Customer) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("PHARMAPOS\n")
	p.Fprintf(&b, "Receipt %s\n", order.DocNumber)
	p.Fprintf(&b, "Date    %s\n", order.CreatedAt.Format("2006-01-02 15:04"))
	p.Fprintf(&b, "Cust    %s\n", customer.Name)
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, line := range order.Lines {
		p.Fprintf(&b, "%-24s %3d x %10.2f\n", truncate(line.ProductName, 24), line.Quantity, line.UnitPrice.InexactFloat64())
		p.Fprintf(&b, "%39.2f\n", line.LineTotal.InexactFloat64())
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	p.Fprintf(&b, "TOTAL %33.2f\n", order.Total.InexactFloat64())
	b.WriteString("Thank you, get well soon.\n")
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
