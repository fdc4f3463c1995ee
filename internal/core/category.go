package core

// Category is a closed tag for classifying expenses. Anything outside the
// known set collapses to CategoryOther so rankings stay exhaustive.
type Category string

const (
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealth         Category = "Health"
	CategoryUtilities      Category = "Utilities"
	CategoryTravel         Category = "Travel"
	CategoryEducation      Category = "Education"
	CategoryOther          Category = "Other"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryShopping,
		CategoryHealth,
		CategoryUtilities,
		CategoryTravel,
		CategoryEducation,
		CategoryOther,
	}
}

// IsValid returns true when c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransportation, CategoryEntertainment,
		CategoryShopping, CategoryHealth, CategoryUtilities,
		CategoryTravel, CategoryEducation, CategoryOther:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// NormalizeCategory maps raw user input onto the closed category set.
// Empty or unknown labels become CategoryOther.
func NormalizeCategory(raw string) Category {
	c := Category(raw)
	if c.IsValid() {
		return c
	}
	return CategoryOther
}
