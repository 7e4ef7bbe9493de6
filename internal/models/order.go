package models

// OrderLine is a single matched menu item. Lines are never mutated after creation.
type OrderLine struct {
	ItemName string  `json:"item"`
	Price    float64 `json:"price"`
}

// Order represents the items detected in one customer message
type Order struct {
	Lines []OrderLine `json:"lines"`
}

// Total returns the sum of all line prices
func (o Order) Total() float64 {
	var total float64
	for _, line := range o.Lines {
		total += line.Price
	}
	return total
}

// IsEmpty reports whether the order has no lines
func (o Order) IsEmpty() bool {
	return len(o.Lines) == 0
}
