package main

import (
	"time"

	"github.com/spadellando/ricettario/config"
	"github.com/spadellando/ricettario/models"
	"github.com/spadellando/ricettario/routes"
	"github.com/spadellando/ricettario/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Recipe{}, &models.RecipeView{})

	images, err := utils.NewImageStore(cfg.ImageDir)
	if err != nil {
		utils.Sugar.Fatalf("image store init failed: %v", err)
	}

	r := routes.SetupRouter(db, images)

	// Reclaim photo files left behind by replaced or removed recipes
	utils.StartImageSweeper(db, images,
		time.Duration(cfg.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.SweepMinAgeMinutes)*time.Minute)

	utils.Sugar.Infof("Starting %s on port %s (graceful)", cfg.AppTitle, cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
