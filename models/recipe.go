package models

import (
	"time"

	"gorm.io/gorm"
)

// Recipe is the single persisted entity of the catalog. Tags are packed into
// one pipe-separated string on the row (see tags.go); TagNames carries the
// decoded form for API responses and is never stored itself.
type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Ingredients string    `gorm:"type:text;not null" json:"ingredients"`
	Steps       string    `gorm:"type:text;not null" json:"steps"`
	Tags        string    `gorm:"type:text;default:''" json:"-"`
	TagNames    []string  `gorm:"-" json:"tags"`
	Emoji       string    `gorm:"-" json:"emoji"`
	PrepMinutes *int      `json:"prep_minutes"`
	ImagePath   string    `gorm:"size:512" json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate stamps both timestamps with the same UTC instant so a fresh
// row always satisfies created_at == updated_at.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.UpdatedAt = r.CreatedAt
	return nil
}

// AfterFind unpacks the stored tag string for rendering and picks the
// recipe's display emoji from its tags.
func (r *Recipe) AfterFind(tx *gorm.DB) error {
	r.TagNames = DecodeTags(r.Tags)
	r.Emoji = EmojiForTags(r.TagNames)
	return nil
}

// AfterCreate keeps a freshly inserted recipe in the same shape a loaded one
// has, with decoded tags and emoji populated.
func (r *Recipe) AfterCreate(tx *gorm.DB) error {
	return r.AfterFind(tx)
}
