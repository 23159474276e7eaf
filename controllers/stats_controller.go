package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spadellando/ricettario/models"
	"github.com/spadellando/ricettario/repository"
	"github.com/spadellando/ricettario/utils"
)

// StatsController provides catalog statistics such as counts and view totals.
type StatsController struct {
	db   *gorm.DB
	repo repository.RecipeRepository
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, repo repository.RecipeRepository) *StatsController {
	return &StatsController{db: db, repo: repo}
}

// GetStats returns aggregate statistics for the catalog.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var recipeCount int64
	var tagCount int
	var viewsToday int64
	var viewsTotal int64

	if err := s.db.Model(&models.Recipe{}).Count(&recipeCount).Error; err != nil {
		// Fall back to 0 instead of failing the whole endpoint
		recipeCount = 0
	}

	if tags, err := s.repo.DistinctTags(ctx.Request.Context()); err == nil {
		tagCount = len(tags)
	}

	// Use string date equality to avoid timezone/type mismatches with the date column
	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := s.db.Model(&models.RecipeView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&viewsToday).Error; err != nil {
		viewsToday = 0
	}

	if err := s.db.Model(&models.RecipeView{}).
		Select("COALESCE(SUM(count),0)").
		Scan(&viewsTotal).Error; err != nil {
		viewsTotal = 0
	}

	utils.Success(ctx, gin.H{
		"recipe_count": recipeCount,
		"tag_count":    tagCount,
		"views_today":  viewsToday,
		"views_total":  viewsTotal,
	})
}
