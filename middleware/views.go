package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spadellando/ricettario/models"
)

// RecipeViewRecorder counts successful recipe detail reads, one counter per
// recipe per day. Mount it on the detail route; it reads the id parameter
// after the handler ran.
func RecipeViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || id == 0 {
			return
		}

		// String date keeps the unique (date, recipe_id) key portable across drivers
		today := time.Now().In(time.Local).Format("2006-01-02")

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "recipe_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.RecipeView{Date: today, RecipeID: uint(id), Count: 1}).Error
	}
}
