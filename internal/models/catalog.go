// internal/models/catalog.go
package models

type Category struct {
	Label         string   `json:"label"`
	Subcategories []string `json:"subcategories"`
}

var PrintCategories = []Category{
	{Label: "Trending Prints", Subcategories: []string{"Popular", "New Arrivals", "Editor's Picks"}},
	{Label: "Games", Subcategories: []string{"Board Games", "Miniatures", "Accessories"}},
	{Label: "Educational", Subcategories: []string{"STEM", "Models", "Teaching Aids"}},
	{Label: "Display", Subcategories: []string{"Figurines", "Art", "Props"}},
	{Label: "For Him", Subcategories: []string{"Gadgets", "Tools", "Toys"}},
	{Label: "Adda", Subcategories: []string{"Community", "Events", "Meetups"}},
}

var ShopCategories = []Category{
	{Label: "Electronics", Subcategories: []string{"Microcontrollers", "Sensors", "Displays", "Motors", "Power Supplies"}},
	{Label: "Filament", Subcategories: []string{"PLA", "ABS", "PETG", "TPU", "Specialty"}},
	{Label: "Printer", Subcategories: []string{"FDM Printers", "Resin Printers", "Parts & Upgrades", "Maintenance", "Enclosures"}},
	{Label: "Accessories", Subcategories: []string{"Nozzles", "Build Plates", "Tools", "Storage", "Cleaning"}},
	{Label: "Power Tools", Subcategories: []string{"Drills", "Soldering Irons", "Rotary Tools", "Heat Guns", "Cutters"}},
	{Label: "Gears", Subcategories: []string{"Belts & Pulleys", "Bearings", "Lead Screws", "Couplers", "Stepper Motors"}},
}

// CategoriesFor returns the category tree shown for a product type.
func CategoriesFor(t ProductType) []Category {
	if t == ProductTypePrint {
		return PrintCategories
	}
	return ShopCategories
}
