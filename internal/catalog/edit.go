package catalog

import (
	"strings"

	"bakerychat/internal/models"
)

// AddItem appends a new item. Blank names and negative prices are rejected
// without touching the profile.
func AddItem(profile *models.BakeryProfile, name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return newValidationError("Please enter a valid item name.")
	}
	if price < 0 {
		return newValidationError("price must not be negative")
	}
	profile.Items = append(profile.Items, models.MenuItem{Name: name, Price: price})
	return nil
}

// EditItem replaces the item at index in place
func EditItem(profile *models.BakeryProfile, index int, name string, price float64) error {
	if err := checkIndex(profile, index); err != nil {
		return err
	}
	if price < 0 {
		return newValidationError("price must not be negative")
	}
	profile.Items[index] = models.MenuItem{Name: name, Price: price}
	return nil
}

// DeleteItem removes the item at index, name and price together
func DeleteItem(profile *models.BakeryProfile, index int) (models.MenuItem, error) {
	if err := checkIndex(profile, index); err != nil {
		return models.MenuItem{}, err
	}
	removed := profile.Items[index]
	profile.Items = append(profile.Items[:index:index], profile.Items[index+1:]...)
	return removed, nil
}

// UpdateHeader replaces the bakery-wide fields
func UpdateHeader(profile *models.BakeryProfile, header models.ProfileHeader) {
	profile.Header = header
}

func checkIndex(profile *models.BakeryProfile, index int) error {
	if index < 0 || index >= len(profile.Items) {
		return newValidationError("item %d does not exist", index+1)
	}
	return nil
}
