package models

// Tag labels recipes; read-only over the API, managed by the seed tool
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;index;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}
