package orders

import (
	"strings"

	"bakerychat/internal/models"
)

// Match scans the menu in table order and returns a line for every item whose
// name appears, case-insensitively, anywhere in input. There are no word
// boundaries: "cake" matches "pancake". A nil result means no order was found.
func Match(input string, menu []models.MenuItem) ([]models.OrderLine, float64) {
	text := strings.ToLower(input)

	var (
		lines []models.OrderLine
		total float64
	)
	for _, item := range menu {
		if !item.HasName() {
			continue
		}
		if strings.Contains(text, strings.ToLower(item.Name)) {
			lines = append(lines, models.OrderLine{ItemName: item.Name, Price: item.Price})
			total += item.Price
		}
	}
	return lines, total
}

// Detect wraps Match and reports whether the input is an order
func Detect(input string, menu []models.MenuItem) (models.Order, bool) {
	lines, _ := Match(input, menu)
	if len(lines) == 0 {
		return models.Order{}, false
	}
	return models.Order{Lines: lines}, true
}
