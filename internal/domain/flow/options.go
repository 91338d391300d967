package flow

// Categories offered on the landing step.
var Categories = []string{
	"Refrigerator",
	"Washer",
	"Dryer",
	"Range",
	"Dishwasher",
	"Microwave",
	"Others",
}

// Brands offered for nameplate location guidance, in display order.
var Brands = []string{
	"GE", "Samsung", "LG", "Whirlpool", "Maytag", "KitchenAid", "Frigidaire", "Bosch",
	"Kenmore", "Haier", "Amana", "Electrolux", "Miele", "Sub-Zero", "Viking",
}

// BrandSubcategories maps a brand to the product lines it offers.
var BrandSubcategories = map[string][]string{
	"GE":         {"Compact Refrigerator", "Full-Size Refrigerator", "Mini Fridge", "Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator", "French Door Refrigerator", "Built-in Refrigerator"},
	"Samsung":    {"French Door Refrigerator", "Side-by-Side Refrigerator", "Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Compact Refrigerator", "Beverage Center", "Wine Cooler"},
	"LG":         {"French Door Refrigerator", "Side-by-Side Refrigerator", "Bottom-Freezer Refrigerator", "Top-Freezer Refrigerator", "Compact Refrigerator"},
	"Whirlpool":  {"Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator", "French Door Refrigerator", "Compact Refrigerator"},
	"Maytag":     {"Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator", "French Door Refrigerator"},
	"KitchenAid": {"Built-in Refrigerator", "French Door Refrigerator", "Side-by-Side Refrigerator", "Bottom-Freezer Refrigerator"},
	"Frigidaire": {"Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator", "French Door Refrigerator", "Compact Refrigerator"},
	"Bosch":      {"Built-in Refrigerator", "French Door Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator"},
	"Kenmore":    {"Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator", "French Door Refrigerator"},
	"Haier":      {"Compact Refrigerator", "Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Side-by-Side Refrigerator"},
	"Amana":      {"Top-Freezer Refrigerator", "Bottom-Freezer Refrigerator", "Compact Refrigerator"},
	"Electrolux": {"French Door Refrigerator", "Side-by-Side Refrigerator", "Bottom-Freezer Refrigerator"},
	"Miele":      {"Built-in Refrigerator", "French Door Refrigerator", "Bottom-Freezer Refrigerator"},
	"Sub-Zero":   {"Built-in Refrigerator", "Integrated Refrigerator", "Wine Storage"},
	"Viking":     {"Built-in Refrigerator", "French Door Refrigerator", "Side-by-Side Refrigerator"},
}

func isCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func isSubcategory(brand, sub string) bool {
	for _, s := range BrandSubcategories[brand] {
		if s == sub {
			return true
		}
	}
	return false
}
