package models

// Property is a rentable listing. AverageRating and ReviewCount are derived
// from the approved reviews linked to it and are not stored.
type Property struct {
	ID            string  `db:"id" json:"id"`
	Name          string  `db:"name" json:"name" validate:"required"`
	Address       string  `db:"address" json:"address" validate:"required"`
	Description   string  `db:"description" json:"description"`
	Price         int     `db:"price" json:"price" validate:"gt=0"`
	Category      string  `db:"category" json:"category"`
	Bedrooms      int     `db:"bedrooms" json:"bedrooms" validate:"gte=0"`
	Bathrooms     int     `db:"bathrooms" json:"bathrooms" validate:"gte=0"`
	AverageRating float64 `db:"-" json:"averageRating"`
	ReviewCount   int     `db:"-" json:"reviewCount"`
}

// TableName returns the database table name
func (Property) TableName() string {
	return "properties"
}

// PropertyWithReviews is a property together with its approved reviews
type PropertyWithReviews struct {
	Property
	Reviews []Review `json:"reviews"`
}
