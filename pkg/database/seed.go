package database

import (
	"fmt"

	"marketplace-service/internal/model"
)

// defaultCategories are created at boot when missing
var defaultCategories = []string{
	"Electronics",
	"Clothing",
	"Books",
	"Home & Garden",
	"Sports",
	"Toys",
	"Beauty",
	"Food",
}

// SeedCategories makes sure the default category set exists. Existing
// categories are left untouched.
func SeedCategories() error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	for _, name := range defaultCategories {
		var category model.Category
		err := db.Where("name = ?", name).First(&category).Error
		if err == nil {
			continue
		}
		if err := db.Create(&model.Category{Name: name}).Error; err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}

	return nil
}
