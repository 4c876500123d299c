package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

type BundleType string

const (
	BundleGeneric BundleType = "generic"
)

const (
	MinBundleImages = 1
	MaxBundleImages = 3
)

var validBundleTypes = map[BundleType]bool{
	BundleGeneric: true,
}

// Bundle is one logical unit of digitized content, such as a double-page
// spread. Images are filenames relative to the project directory.
type Bundle struct {
	Type   BundleType `json:"type"`
	Images []string   `json:"images"`
}

func (b *Bundle) Validate() error {
	if !validBundleTypes[b.Type] {
		return fmt.Errorf("invalid bundle type %q", b.Type)
	}
	if n := len(b.Images); n < MinBundleImages || n > MaxBundleImages {
		return fmt.Errorf("bundle must have %d-%d images, got %d", MinBundleImages, MaxBundleImages, n)
	}
	for _, img := range b.Images {
		if err := validateImageName(img); err != nil {
			return err
		}
	}
	return nil
}

func validateImageName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("bundle image name is empty")
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("bundle image %q must be relative to the project", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("bundle image %q escapes the project directory", name)
	}
	return nil
}

// Clone returns a copy that shares no slice storage with b.
func (b Bundle) Clone() Bundle {
	imgs := make([]string, len(b.Images))
	copy(imgs, b.Images)
	return Bundle{Type: b.Type, Images: imgs}
}
