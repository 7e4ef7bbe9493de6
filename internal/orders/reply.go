package orders

import (
	"fmt"
	"strings"

	"bakerychat/internal/models"
)

// Confirmation renders the assistant reply for a detected order
func Confirmation(order models.Order) string {
	var b strings.Builder
	b.WriteString("Your order:\n\n")
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "- %s: $%.2f\n", line.ItemName, line.Price)
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f", order.Total())
	return b.String()
}
