package models

import "time"

// RecipeView stores aggregated view counts per day and recipe.
// Date is kept as a YYYY-MM-DD string so the unique index and equality
// filters behave the same on SQLite and MySQL.
type RecipeView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"size:10;index:idx_views_date_recipe,unique;not null" json:"date"`
	RecipeID  uint      `gorm:"index;index:idx_views_date_recipe,unique;not null" json:"recipe_id"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
