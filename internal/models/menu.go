package models

import "strings"

// MenuItem represents a purchasable bakery item
type MenuItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ProfileHeader holds the bakery-wide fields that apply to every menu row
type ProfileHeader struct {
	WorkingHours string `json:"working_hours"`
	ContactInfo  string `json:"contact_info"`
	Location     string `json:"location"`
}

// BakeryProfile is the in-memory view of the bakery information table.
// Items and Header are kept apart and only joined into flat rows on save.
type BakeryProfile struct {
	Items  []MenuItem    `json:"items"`
	Header ProfileHeader `json:"header"`
}

// DefaultProfile returns the profile used when no menu table is available
func DefaultProfile() BakeryProfile {
	return BakeryProfile{
		Items: []MenuItem{
			{Name: "Bread", Price: 5.0},
			{Name: "Cake", Price: 20.0},
			{Name: "Pastry", Price: 3.0},
		},
		Header: ProfileHeader{
			WorkingHours: "8 AM - 6 PM",
			ContactInfo:  "123-456-7890",
			Location:     "123 Bakery Street",
		},
	}
}

// Clone returns a deep copy so sessions never share the item slice
func (p BakeryProfile) Clone() BakeryProfile {
	items := make([]MenuItem, len(p.Items))
	copy(items, p.Items)
	return BakeryProfile{Items: items, Header: p.Header}
}

// Names returns item names in table order
func (p BakeryProfile) Names() []string {
	names := make([]string, len(p.Items))
	for i, item := range p.Items {
		names[i] = item.Name
	}
	return names
}

// Prices returns item prices in table order
func (p BakeryProfile) Prices() []float64 {
	prices := make([]float64, len(p.Items))
	for i, item := range p.Items {
		prices[i] = item.Price
	}
	return prices
}

// HasName reports whether the item carries a usable name
func (mi MenuItem) HasName() bool {
	return strings.TrimSpace(mi.Name) != ""
}
