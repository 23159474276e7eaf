package utils

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/spadellando/ricettario/models"
)

// SweepOrphanedImages removes files from the store that no recipe references
// and that are older than minAge. Replacing a recipe photo leaves the old file
// behind; this reclaims it. Fresh files are skipped so an upload racing a
// recipe insert is never collected. Returns the number of files removed.
func SweepOrphanedImages(db *gorm.DB, store *ImageStore, minAge time.Duration) (int, error) {
	var refs []string
	if err := db.Model(&models.Recipe{}).Where("image_path <> ''").Pluck("image_path", &refs).Error; err != nil {
		return 0, err
	}
	referenced := make(map[string]bool, len(refs))
	for _, r := range refs {
		referenced[filepath.Base(r)] = true
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-minAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(store.Path(entry.Name())); err != nil {
			log.Printf("image sweeper remove %s failed: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// StartImageSweeper launches a background goroutine that periodically sweeps
// the image directory for orphaned files. It is best-effort and logs failures.
func StartImageSweeper(db *gorm.DB, store *ImageStore, interval, minAge time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if minAge <= 0 {
		minAge = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			removed, err := SweepOrphanedImages(db, store, minAge)
			if err != nil {
				log.Printf("image sweeper failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("image sweeper removed %d orphaned files", removed)
			}
		}
	}()
}
