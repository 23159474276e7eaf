package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/spadellando/ricettario/models"
)

// ImageRemover deletes a stored image by name. Satisfied by utils.ImageStore;
// a nil remover skips file cleanup entirely.
type ImageRemover interface {
	Remove(name string)
}

// RecipeFields carries the full set of caller-editable recipe attributes for
// an update. Every field is written; PrepMinutes nil clears the column.
type RecipeFields struct {
	Title       string
	Ingredients string
	Steps       string
	Tags        []string
	PrepMinutes *int
	ImagePath   string
}

// RecipeRepository is the persistence boundary for the recipe catalog.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, id uint, fields RecipeFields) (int64, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Recipe, error)
	Search(ctx context.Context, query string, tags []string) ([]models.Recipe, error)
	DistinctTags(ctx context.Context) ([]string, error)
}

type gormRecipeRepository struct {
	db     *gorm.DB
	images ImageRemover
}

// NewRecipeRepository builds the GORM-backed repository.
func NewRecipeRepository(db *gorm.DB, images ImageRemover) RecipeRepository {
	return &gormRecipeRepository{db: db, images: images}
}

// Create inserts the recipe. Tags come in through TagNames and are packed
// into the stored form; id and both timestamps are assigned on the way in,
// and the model hooks hand back the deduplicated tag list.
func (r *gormRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	recipe.Tags = models.EncodeTags(recipe.TagNames)
	return r.db.WithContext(ctx).Create(recipe).Error
}

// Update rewrites every editable column for the given id and refreshes
// updated_at; created_at and id are never touched. A missing id affects zero
// rows and is not an error.
func (r *gormRecipeRepository) Update(ctx context.Context, id uint, fields RecipeFields) (int64, error) {
	updates := map[string]interface{}{
		"title":        fields.Title,
		"ingredients":  fields.Ingredients,
		"steps":        fields.Steps,
		"tags":         models.EncodeTags(fields.Tags),
		"prep_minutes": fields.PrepMinutes,
		"image_path":   fields.ImagePath,
		"updated_at":   time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// Delete removes the recipe row and its view counters. The stored image file
// is removed first, best effort; a recipe that is already gone is a no-op.
func (r *gormRecipeRepository) Delete(ctx context.Context, id uint) error {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Select("id", "image_path").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if recipe.ImagePath != "" && r.images != nil {
		r.images.Remove(recipe.ImagePath)
	}

	if err := r.db.WithContext(ctx).Delete(&models.Recipe{}, id).Error; err != nil {
		return err
	}
	// the recipe row is gone at this point; stale view counters are harmless
	_ = r.db.WithContext(ctx).Where("recipe_id = ?", id).Delete(&models.RecipeView{}).Error
	return nil
}

// FindByID fetches one recipe; gorm.ErrRecordNotFound when absent.
func (r *gormRecipeRepository) FindByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Search returns recipes matching the free-text query and carrying every
// required tag, most recently updated first.
func (r *gormRecipeRepository) Search(ctx context.Context, query string, tags []string) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	tx := ApplySearchFilters(r.db.WithContext(ctx).Model(&models.Recipe{}), query, tags)
	if err := tx.Order("updated_at DESC, id ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// DistinctTags collects every tag in the catalog, de-duplicated
// case-insensitively keeping the first-seen casing, sorted case-insensitively.
func (r *gormRecipeRepository) DistinctTags(ctx context.Context) ([]string, error) {
	var rows []string
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Order("id").Pluck("tags", &rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	tags := []string{}
	for _, raw := range rows {
		for _, tag := range models.DecodeTags(raw) {
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags, nil
}

// ApplySearchFilters narrows tx to recipes matching the free-text query
// across title, ingredients and steps, and containing every required tag.
// Matching is case-insensitive substring on both axes; an empty query and an
// empty tag list each match everything. LIKE wildcards in the input are left
// as-is.
func ApplySearchFilters(tx *gorm.DB, query string, tags []string) *gorm.DB {
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(ingredients) LIKE ? OR LOWER(steps) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	for _, tag := range models.SanitizeTagList(tags) {
		tx = tx.Where("LOWER(tags) LIKE ?", "%"+strings.ToLower(tag)+"%")
	}
	return tx
}
