package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	// Registers the webp decoder so phone uploads decode like everything else.
	_ "golang.org/x/image/webp"
)

// encodableExts are the formats we can write back out. Anything else that
// still decodes (webp for one) is re-encoded as png.
var encodableExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ImageStore persists uploaded recipe photos under a single directory with
// generated names. Stored names are what the database keeps in image_path.
type ImageStore struct {
	dir string
}

// NewImageStore creates the backing directory if needed and returns a store.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a stored image name.
func (s *ImageStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save persists a multipart upload and returns the generated file name.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.SaveFrom(f, fh.Filename)
}

// SaveFrom decodes the image from r, re-encodes it and writes it under a
// fresh uuid-derived name. The extension comes from the original file name,
// defaulting to png, and falls back to png for formats we cannot encode.
// A payload that does not decode as an image is rejected.
func (s *ImageStore) SaveFrom(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || !encodableExts[ext] {
		ext = ".png"
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	// flatten to NRGBA so palette and CMYK sources re-encode cleanly
	flat := imaging.Clone(img)

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	dst := filepath.Join(s.dir, name)
	if err := imaging.Save(flat, dst); err != nil {
		return "", fmt.Errorf("save image %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored image by name. Removal is best effort: a missing
// file is not an error worth surfacing, the recipe row wins either way.
func (s *ImageStore) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		Sugar.Warnf("remove image %s failed: %v", name, err)
	}
}
