package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spadellando/ricettario/config"
	"github.com/spadellando/ricettario/controllers"
	"github.com/spadellando/ricettario/middleware"
	"github.com/spadellando/ricettario/repository"
	"github.com/spadellando/ricettario/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, images *utils.ImageStore) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl := utils.NewRollingFileLogger(cfg)
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")
	// Uploaded recipe photos are served straight from the image directory
	r.Static("/media", cfg.ImageDir)

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	repo := repository.NewRecipeRepository(db, images)
	recipeController := controllers.NewRecipeController(repo, images)
	metaController := controllers.NewMetaController()
	statsController := controllers.NewStatsController(db, repo)

	api := r.Group("/api/v1")

	api.GET("/recipes", recipeController.ListRecipes)
	api.GET("/recipes/:id", middleware.RecipeViewRecorder(db), recipeController.GetRecipe)
	api.GET("/tags", recipeController.ListTags)
	api.GET("/meta", metaController.GetMeta)
	api.GET("/stats", statsController.GetStats)

	mutating := api.Group("")
	mutating.Use(middleware.RateLimitMiddleware())
	mutating.POST("/recipes", recipeController.CreateRecipe)
	mutating.PUT("/recipes/:id", recipeController.UpdateRecipe)
	mutating.DELETE("/recipes/:id", recipeController.DeleteRecipe)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		// API misses get a JSON 404
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		// Static and media misses stay 404
		if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/media/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "asset not found"})
			return
		}
		// Everything else falls back to the single-page frontend
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r
}
