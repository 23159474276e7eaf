package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spadellando/ricettario/models"
	"github.com/spadellando/ricettario/repository"
	"github.com/spadellando/ricettario/utils"
)

// RecipeController manages CRUD and search over the recipe catalog.
type RecipeController struct {
	repo   repository.RecipeRepository
	images *utils.ImageStore
}

// NewRecipeController creates a new RecipeController instance.
func NewRecipeController(repo repository.RecipeRepository, images *utils.ImageStore) *RecipeController {
	return &RecipeController{repo: repo, images: images}
}

// ListRecipes returns recipes matching the free-text query and tag filters,
// most recently updated first.
func (rc *RecipeController) ListRecipes(ctx *gin.Context) {
	search := strings.TrimSpace(ctx.Query("search"))
	tags := parseTagList(ctx.QueryArray("tags"))

	// Cache only the unfiltered listing to avoid cache key explosion
	filtered := search != "" || len(tags) > 0
	if !filtered {
		if b, ok := utils.CacheGetBytes("cache:recipes:list:all"); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	recipes, err := rc.repo.Search(ctx.Request.Context(), search, tags)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to search recipes")
		return
	}

	payload := gin.H{
		"items": recipes,
		"count": len(recipes),
	}
	if !filtered {
		wrapper := struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		}{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON("cache:recipes:list:all", wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetRecipe returns a single recipe by id.
func (rc *RecipeController) GetRecipe(ctx *gin.Context) {
	idStr := ctx.Param("id")
	id, ok := parseRecipeID(idStr)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid recipe id")
		return
	}

	// Try cache first
	if b, ok := utils.CacheGetBytes("cache:recipe:detail:" + idStr); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	recipe, err := rc.repo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "recipe not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load recipe")
		return
	}

	payload := gin.H{"recipe": recipe}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:recipe:detail:"+idStr, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// CreateRecipe stores a new recipe from a multipart form. The image upload is
// optional and best effort: a photo that does not decode is dropped with a
// warning instead of losing the recipe.
func (rc *RecipeController) CreateRecipe(ctx *gin.Context) {
	form, code, msg := parseRecipeForm(ctx)
	if form == nil {
		utils.Error(ctx, http.StatusBadRequest, code, msg)
		return
	}

	recipe := models.Recipe{
		Title:       form.Title,
		Ingredients: form.Ingredients,
		Steps:       form.Steps,
		TagNames:    form.Tags,
		PrepMinutes: form.PrepMinutes,
		ImagePath:   rc.saveUploadedImage(ctx),
	}

	if err := rc.repo.Create(ctx.Request.Context(), &recipe); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create recipe")
		return
	}

	utils.InvalidateByPrefix("cache:recipes:")
	utils.Created(ctx, gin.H{"recipe": recipe})
}

// UpdateRecipe replaces every editable field of an existing recipe. A new
// image upload replaces the stored photo; without one the old photo stays.
func (rc *RecipeController) UpdateRecipe(ctx *gin.Context) {
	idStr := ctx.Param("id")
	id, ok := parseRecipeID(idStr)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid recipe id")
		return
	}

	existing, err := rc.repo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "recipe not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load recipe")
		return
	}

	form, code, msg := parseRecipeForm(ctx)
	if form == nil {
		utils.Error(ctx, http.StatusBadRequest, code, msg)
		return
	}

	imagePath := existing.ImagePath
	if saved := rc.saveUploadedImage(ctx); saved != "" {
		imagePath = saved
	}

	rows, err := rc.repo.Update(ctx.Request.Context(), id, repository.RecipeFields{
		Title:       form.Title,
		Ingredients: form.Ingredients,
		Steps:       form.Steps,
		Tags:        form.Tags,
		PrepMinutes: form.PrepMinutes,
		ImagePath:   imagePath,
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to update recipe")
		return
	}
	if rows == 0 {
		utils.Error(ctx, http.StatusNotFound, 40402, "recipe not found")
		return
	}

	// the replaced photo is no longer referenced by anything
	if rc.images != nil && existing.ImagePath != "" && existing.ImagePath != imagePath {
		rc.images.Remove(existing.ImagePath)
	}

	recipe, err := rc.repo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load recipe")
		return
	}

	utils.InvalidateByPrefix("cache:recipes:")
	utils.InvalidateByPrefix("cache:recipe:detail:" + idStr)
	utils.Success(ctx, gin.H{"recipe": recipe})
}

// DeleteRecipe removes a recipe, its view counters and its stored photo.
func (rc *RecipeController) DeleteRecipe(ctx *gin.Context) {
	idStr := ctx.Param("id")
	id, ok := parseRecipeID(idStr)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid recipe id")
		return
	}

	if _, err := rc.repo.FindByID(ctx.Request.Context(), id); err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "recipe not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load recipe")
		return
	}

	if err := rc.repo.Delete(ctx.Request.Context(), id); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to delete recipe")
		return
	}

	utils.InvalidateByPrefix("cache:recipes:")
	utils.InvalidateByPrefix("cache:recipe:detail:" + idStr)
	utils.Success(ctx, gin.H{"message": "recipe deleted"})
}

// ListTags returns every distinct tag in the catalog, sorted.
func (rc *RecipeController) ListTags(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:recipes:tags"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	tags, err := rc.repo.DistinctTags(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to list tags")
		return
	}

	payload := gin.H{"tags": tags}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:recipes:tags", wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// saveUploadedImage stores the optional "image" form file and returns its
// generated name, or "" when no usable upload is present.
func (rc *RecipeController) saveUploadedImage(ctx *gin.Context) string {
	if rc.images == nil {
		return ""
	}
	fh, err := ctx.FormFile("image")
	if err != nil {
		return ""
	}
	name, err := rc.images.Save(fh)
	if err != nil {
		utils.Sugar.Warnf("discarding unusable image upload %q: %v", fh.Filename, err)
		return ""
	}
	return name
}

type recipeForm struct {
	Title       string
	Ingredients string
	Steps       string
	Tags        []string
	PrepMinutes *int
}

// parseRecipeForm validates the shared create/update form fields. On failure
// it returns a nil form plus the error code and message to respond with.
func parseRecipeForm(ctx *gin.Context) (*recipeForm, int, string) {
	title := utils.SanitizeText(strings.TrimSpace(ctx.PostForm("title")))
	ingredients := utils.SanitizeText(strings.TrimSpace(ctx.PostForm("ingredients")))
	steps := utils.SanitizeText(strings.TrimSpace(ctx.PostForm("steps")))
	if title == "" || ingredients == "" || steps == "" {
		return nil, 40010, "title, ingredients and steps are required"
	}

	form := &recipeForm{
		Title:       title,
		Ingredients: ingredients,
		Steps:       steps,
	}

	for _, tag := range parseTagList(ctx.PostFormArray("tags")) {
		if clean := utils.SanitizeText(tag); clean != "" {
			form.Tags = append(form.Tags, clean)
		}
	}

	if raw := strings.TrimSpace(ctx.PostForm("prep_minutes")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return nil, 40012, "prep_minutes must be a non-negative integer"
		}
		form.PrepMinutes = &minutes
	}

	return form, 0, ""
}

// parseTagList flattens repeated and comma-separated tag values into one
// trimmed list.
func parseTagList(values []string) []string {
	var tags []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}
	return tags
}

func parseRecipeID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
