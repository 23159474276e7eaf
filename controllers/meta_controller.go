package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/spadellando/ricettario/config"
	"github.com/spadellando/ricettario/models"
	"github.com/spadellando/ricettario/utils"
)

// MetaController serves static catalog metadata the frontend needs to render:
// branding, the suggested tag vocabulary and image conventions.
type MetaController struct{}

func NewMetaController() *MetaController { return &MetaController{} }

// GetMeta returns app branding plus the tag vocabulary with emoji.
func (m *MetaController) GetMeta(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title":             cfg.AppTitle,
		"tagline":           cfg.AppTagline,
		"suggested_tags":    models.SuggestedTags,
		"default_tag_emoji": models.DefaultTagEmoji,
		"placeholder_image": cfg.PlaceholderImage,
		"media_base":        "/media/",
	})
}
