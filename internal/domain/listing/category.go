package listing

// Category classifies a listing into one of a fixed set of marketplace sections.
type Category string

// Marketplace categories.
const (
	CategoryElectronics   Category = "electronics"
	CategoryVehicles      Category = "vehicles"
	CategoryPets          Category = "pets"
	CategoryFurniture     Category = "furniture"
	CategoryClothing      Category = "clothing"
	CategoryBooks         Category = "books"
	CategorySports        Category = "sports"
	CategoryToys          Category = "toys"
	CategoryHomeGarden    Category = "home_garden"
	CategoryHealthBeauty  Category = "health_beauty"
	CategoryFoodBeverages Category = "food_beverages"
)

var validCategories = map[Category]bool{
	CategoryElectronics:   true,
	CategoryVehicles:      true,
	CategoryPets:          true,
	CategoryFurniture:     true,
	CategoryClothing:      true,
	CategoryBooks:         true,
	CategorySports:        true,
	CategoryToys:          true,
	CategoryHomeGarden:    true,
	CategoryHealthBeauty:  true,
	CategoryFoodBeverages: true,
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return validCategories[c]
}
