package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rogersnm/copista/internal/config"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/slug"
)

// maxProbe bounds the directory-name probe in Create.
const maxProbe = 100000

// Manager allocates, opens and closes projects and holds the one that is
// currently active.
type Manager struct {
	cfg     *config.Config
	log     *zap.Logger
	current *Project
}

func NewManager(cfg *config.Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log.Named("project")}
}

// Current returns the active project, or nil.
func (m *Manager) Current() *Project {
	return m.current
}

// Create allocates a new project directory under parent (or the configured
// base folder) named after the slug of title, and makes it current.
//
// An existing directory with the same name is never reused: the slug gets
// a _001, _002, ... suffix until a free name is found. A failure midway
// leaves whatever was created on disk; the error names the failed step.
func (m *Manager) Create(title, parent string) (*Project, error) {
	const op = "create project"
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError(op, "title is required")
	}
	base := slug.Make(title)
	if base == "" {
		return nil, validationError(op, "title %q has no usable characters for a directory name", title)
	}
	if parent == "" {
		parent = m.cfg.BaseProjectsFolder
	}
	if parent == "" {
		return nil, validationError(op, "no parent directory given and no base projects folder configured")
	}

	dir, err := freeDir(parent, base)
	if err != nil {
		return nil, newError(KindIO, op, parent, err)
	}

	p := New(dir)
	p.metadata = model.Metadata{Title: title}
	p.bundles = []model.Bundle{}

	if err := os.MkdirAll(p.Dir(), 0755); err != nil {
		return nil, newError(KindIO, op+": creating directory", p.Dir(), err)
	}
	if err := p.EnsureSubfolders(); err != nil {
		return nil, fmt.Errorf("%s: creating subfolders: %w", op, err)
	}
	if err := p.SaveBundles(); err != nil {
		return nil, fmt.Errorf("%s: writing bundles: %w", op, err)
	}
	if err := p.SaveMetadata(); err != nil {
		return nil, fmt.Errorf("%s: writing metadata: %w", op, err)
	}

	if err := m.activate(p); err != nil {
		return nil, err
	}
	m.log.Info("project created", zap.String("dir", p.Dir()), zap.String("title", title))
	return p, nil
}

func freeDir(parent, base string) (string, error) {
	candidate := filepath.Join(parent, base)
	for n := 1; n <= maxProbe; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(parent, slug.Numbered(base, n))
	}
	return "", fmt.Errorf("no free directory name for %s", base)
}

// Load opens the project in dir: bundles, then subfolders, then metadata.
// The first failure aborts and the previously current project stays
// current. Non-fatal conditions are returned as warnings.
func (m *Manager) Load(dir string) (*Project, []Warning, error) {
	const op = "load project"
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, newError(KindNotFound, op, dir, fmt.Errorf("project directory does not exist"))
		}
		return nil, nil, newError(KindIO, op, dir, err)
	}
	if !info.IsDir() {
		return nil, nil, newError(KindValidation, op, dir, fmt.Errorf("not a directory"))
	}

	p := New(dir)
	var warnings []Warning

	w, err := p.LoadBundles()
	if err != nil {
		return nil, nil, err
	}
	if w != nil {
		warnings = append(warnings, *w)
	}
	if err := p.EnsureSubfolders(); err != nil {
		return nil, nil, err
	}
	w, err = p.LoadMetadata()
	if err != nil {
		return nil, nil, err
	}
	if w != nil {
		warnings = append(warnings, *w)
	}

	if err := m.activate(p); err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		m.log.Warn("project loaded with warning", zap.String("dir", p.Dir()), zap.String("warning", w.String()))
	}
	m.log.Debug("project loaded", zap.String("dir", p.Dir()), zap.Int("bundles", p.Len()))
	return p, warnings, nil
}

// Close flushes the current project to disk and clears it. Closing with
// no current project is a no-op. If the flush fails the project stays
// current.
func (m *Manager) Close() error {
	if m.current == nil {
		return nil
	}
	if err := m.current.flush(); err != nil {
		return fmt.Errorf("close project %s: %w", m.current.Dir(), err)
	}
	m.log.Debug("project closed", zap.String("dir", m.current.Dir()))
	m.current = nil
	return nil
}

// activate closes the current project (if it is a different one) and
// makes p current.
func (m *Manager) activate(p *Project) error {
	if m.current != nil && m.current.Dir() != p.Dir() {
		if err := m.Close(); err != nil {
			return err
		}
	}
	m.current = p
	return nil
}

// Summary describes a project found by List.
type Summary struct {
	Dir     string
	Name    string
	Title   string
	Bundles int
}

// List returns the projects directly inside parent (or the base folder),
// skipping hidden directories. Projects whose files cannot be read are
// still listed, with an empty title.
func (m *Manager) List(parent string) ([]Summary, error) {
	if parent == "" {
		parent = m.cfg.BaseProjectsFolder
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, newError(KindIO, "list projects", parent, err)
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(parent, e.Name())
		if !IsProject(dir) {
			continue
		}
		p := New(dir)
		s := Summary{Dir: p.Dir(), Name: e.Name()}
		if _, err := p.LoadMetadata(); err == nil {
			s.Title = p.Title()
		}
		if _, err := p.LoadBundles(); err == nil {
			s.Bundles = p.Len()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
