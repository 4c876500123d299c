package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/rogersnm/copista/internal/fileutil"
	"github.com/rogersnm/copista/internal/model"
)

const (
	BundlesFile           = "bundles.json"
	MetadataFile          = "project_metadata.json"
	DocumentsMetadataFile = "documents_metadata.json"

	CacheSubfolder   = ".cache"
	CaptureSubfolder = ".capture"
)

const (
	bundlesKey  = "bundles"
	metadataKey = "project_metadata"
)

// Project is one on-disk unit of work: a directory holding bundles.json,
// project_metadata.json and the reserved working subfolders.
//
// A Project is not safe for concurrent use; it is owned by one goroutine.
type Project struct {
	dir      string
	metadata model.Metadata
	bundles  []model.Bundle
}

// New returns an unloaded Project rooted at dir.
func New(dir string) *Project {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Project{dir: filepath.Clean(dir)}
}

func (p *Project) Dir() string                   { return p.dir }
func (p *Project) BundlesPath() string           { return filepath.Join(p.dir, BundlesFile) }
func (p *Project) MetadataPath() string          { return filepath.Join(p.dir, MetadataFile) }
func (p *Project) DocumentsMetadataPath() string { return filepath.Join(p.dir, DocumentsMetadataFile) }
func (p *Project) CacheDir() string              { return filepath.Join(p.dir, CacheSubfolder) }
func (p *Project) CaptureDir() string            { return filepath.Join(p.dir, CaptureSubfolder) }

// ImagePath resolves a bundle image name to its absolute path.
func (p *Project) ImagePath(name string) string {
	return filepath.Join(p.dir, name)
}

func (p *Project) Title() string { return p.metadata.Title }

func (p *Project) Metadata() model.Metadata {
	m := p.metadata
	if m.Description != nil {
		d := *m.Description
		m.Description = &d
	}
	return m
}

func (p *Project) Len() int { return len(p.bundles) }

// Bundles returns a copy of the bundle sequence.
func (p *Project) Bundles() []model.Bundle {
	out := make([]model.Bundle, len(p.bundles))
	for i, b := range p.bundles {
		out[i] = b.Clone()
	}
	return out
}

// Bundle returns the bundle at 0-based index i.
func (p *Project) Bundle(i int) (model.Bundle, error) {
	if i < 0 || i >= len(p.bundles) {
		return model.Bundle{}, validationError("get bundle", "index %d out of range (project has %d bundles)", i, len(p.bundles))
	}
	return p.bundles[i].Clone(), nil
}

// LoadBundles replaces the in-memory bundles with the contents of
// bundles.json. On error the in-memory list is left as it was. An empty
// or missing "bundles" key is not an error; it yields a Warning.
func (p *Project) LoadBundles() (*Warning, error) {
	const op = "load bundles"
	var bundles []model.Bundle
	found, err := readSection(op, p.BundlesPath(), bundlesKey, &bundles)
	if err != nil {
		return nil, err
	}
	if !found {
		p.bundles = []model.Bundle{}
		return &Warning{Op: op, Detail: fmt.Sprintf("no %s found in %s", bundlesKey, BundlesFile)}, nil
	}
	for i := range bundles {
		if err := bundles[i].Validate(); err != nil {
			return nil, newError(KindParse, op, p.BundlesPath(), fmt.Errorf("bundle %d: %w", i, err))
		}
	}
	p.bundles = bundles
	return nil, nil
}

func (p *Project) SaveBundles() error {
	bundles := p.bundles
	if bundles == nil {
		bundles = []model.Bundle{}
	}
	return writeSection("save bundles", p.BundlesPath(), bundlesKey, bundles)
}

// LoadMetadata mirrors LoadBundles for project_metadata.json.
func (p *Project) LoadMetadata() (*Warning, error) {
	const op = "load project metadata"
	var meta model.Metadata
	found, err := readSection(op, p.MetadataPath(), metadataKey, &meta)
	if err != nil {
		return nil, err
	}
	if !found || meta.IsZero() {
		p.metadata = model.Metadata{}
		return &Warning{Op: op, Detail: fmt.Sprintf("no %s found in %s", metadataKey, MetadataFile)}, nil
	}
	p.metadata = meta
	if err := meta.Validate(); err != nil {
		return &Warning{Op: op, Detail: err.Error()}, nil
	}
	return nil, nil
}

func (p *Project) SaveMetadata() error {
	return writeSection("save project metadata", p.MetadataPath(), metadataKey, p.metadata)
}

// EnsureSubfolders creates .cache and .capture if missing.
func (p *Project) EnsureSubfolders() error {
	for _, dir := range []string{p.CacheDir(), p.CaptureDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return newError(KindIO, "create subfolder", dir, err)
		}
	}
	return nil
}

// InsertBundle inserts b before 0-based index and persists the sequence.
// If the save fails the insert is undone.
func (p *Project) InsertBundle(index int, b model.Bundle) error {
	const op = "insert bundle"
	if err := b.Validate(); err != nil {
		return newError(KindValidation, op, "", err)
	}
	if index < 0 || index > len(p.bundles) {
		return validationError(op, "position %d out of range (project has %d bundles)", index, len(p.bundles))
	}

	p.bundles = slices.Insert(p.bundles, index, b.Clone())
	if err := p.SaveBundles(); err != nil {
		p.bundles = slices.Delete(p.bundles, index, index+1)
		return err
	}
	return nil
}

func (p *Project) AppendBundle(b model.Bundle) error {
	return p.InsertBundle(len(p.bundles), b)
}

// CopyImages copies 1-3 source images into the project directory and
// returns the stored names. It touches only the filesystem, so it may run
// off the owning goroutine. On failure nothing copied so far is left behind.
func (p *Project) CopyImages(paths []string) ([]string, error) {
	const op = "copy images"
	if n := len(paths); n < model.MinBundleImages || n > model.MaxBundleImages {
		return nil, validationError(op, "a bundle takes %d-%d images, got %d", model.MinBundleImages, model.MaxBundleImages, n)
	}
	for _, src := range paths {
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				return nil, newError(KindNotFound, op, src, fmt.Errorf("image file not found"))
			}
			return nil, newError(KindIO, op, src, err)
		}
	}

	names := make([]string, 0, len(paths))
	for _, src := range paths {
		name, err := fileutil.CopyImage(src, p.dir)
		if err != nil {
			p.RemoveImages(names)
			return nil, newError(KindIO, op, src, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// RemoveImages deletes copied image files; missing files are ignored.
func (p *Project) RemoveImages(names []string) {
	for _, name := range names {
		os.Remove(p.ImagePath(name))
	}
}

// ImportImages copies paths into the project and inserts them as one
// bundle before index.
func (p *Project) ImportImages(kind model.BundleType, paths []string, index int) (model.Bundle, error) {
	if index < 0 || index > len(p.bundles) {
		return model.Bundle{}, validationError("import images", "position %d out of range (project has %d bundles)", index, len(p.bundles))
	}
	names, err := p.CopyImages(paths)
	if err != nil {
		return model.Bundle{}, err
	}
	return p.InsertCopied(kind, names, index)
}

// InsertCopied inserts already-copied images as a bundle, removing the
// files again if the insert fails.
func (p *Project) InsertCopied(kind model.BundleType, names []string, index int) (model.Bundle, error) {
	b := model.Bundle{Type: kind, Images: names}
	if err := p.InsertBundle(index, b); err != nil {
		p.RemoveImages(names)
		return model.Bundle{}, err
	}
	return b.Clone(), nil
}

// SetDescription replaces the description (nil clears it) and saves the
// metadata, restoring the previous value if the save fails.
func (p *Project) SetDescription(desc *string) error {
	prev := p.metadata.Description
	if desc != nil {
		d := *desc
		p.metadata.Description = &d
	} else {
		p.metadata.Description = nil
	}
	if err := p.SaveMetadata(); err != nil {
		p.metadata.Description = prev
		return err
	}
	return nil
}

// flush writes both persisted files.
func (p *Project) flush() error {
	if err := p.SaveBundles(); err != nil {
		return err
	}
	return p.SaveMetadata()
}
