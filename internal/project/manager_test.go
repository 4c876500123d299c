package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rogersnm/copista/internal/config"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := t.TempDir()
	return NewManager(&config.Config{BaseProjectsFolder: base}, zap.NewNop()), base
}

func TestCreate(t *testing.T) {
	m, base := newTestManager(t)

	p, err := m.Create("My Test Project", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "my-test-project"), p.Dir())
	assert.Same(t, p, m.Current())

	assert.DirExists(t, p.CacheDir())
	assert.DirExists(t, p.CaptureDir())

	meta := readJSON(t, p.MetadataPath())
	assert.Equal(t, map[string]any{"title": "My Test Project", "description": nil}, meta["project_metadata"])
	assert.EqualValues(t, SchemaVersion, meta["version"])

	bundles := readJSON(t, p.BundlesPath())
	assert.Equal(t, []any{}, bundles["bundles"])
}

func TestCreate_NonLatinTitles(t *testing.T) {
	m, base := newTestManager(t)

	p, err := m.Create("Книга записей 1790", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "kniga-zapisei-1790"), p.Dir())
	assert.Equal(t, "Книга записей 1790", p.Title())

	p, err = m.Create("Βιβλίο", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "biblio"), p.Dir())

	p, err = m.Create("日本の古文書", "")
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(p.Dir()))
	assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, filepath.Base(p.Dir()))
	assert.Equal(t, "日本の古文書", p.Title())
}

func TestCreate_Collision(t *testing.T) {
	m, base := newTestManager(t)

	first, err := m.Create("My Test Project", "")
	require.NoError(t, err)
	second, err := m.Create("My Test Project", "")
	require.NoError(t, err)
	third, err := m.Create("My Test Project", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "my-test-project"), first.Dir())
	assert.Equal(t, filepath.Join(base, "my-test-project_001"), second.Dir())
	assert.Equal(t, filepath.Join(base, "my-test-project_002"), third.Dir())
	assert.Same(t, third, m.Current())
}

func TestCreate_SkipsStaleDirectory(t *testing.T) {
	m, base := newTestManager(t)
	require.NoError(t, os.Mkdir(filepath.Join(base, "ledger"), 0755))

	p, err := m.Create("Ledger", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "ledger_001"), p.Dir())
}

func TestCreate_ExplicitParent(t *testing.T) {
	m, _ := newTestManager(t)
	parent := filepath.Join(t.TempDir(), "nested", "parent")

	p, err := m.Create("Diario de viaje", parent)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "diario-de-viaje"), p.Dir())
}

func TestCreate_EmptyTitle(t *testing.T) {
	m, base := newTestManager(t)

	for _, title := range []string{"", "   ", "!!!"} {
		_, err := m.Create(title, "")
		require.Error(t, err, title)
		assert.True(t, errors.Is(err, ErrValidation), title)
	}

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Nil(t, m.Current())
}

func TestCreate_ParentIsFile(t *testing.T) {
	m, _ := newTestManager(t)
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0644))

	_, err := m.Create("Title", parent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestLoad(t *testing.T) {
	m, _ := newTestManager(t)
	created, err := m.Create("Libro de cuentas", "")
	require.NoError(t, err)
	require.NoError(t, created.AppendBundle(generic("a.jpg", "b.jpg")))
	require.NoError(t, m.Close())

	m2 := NewManager(&config.Config{}, nil)
	p, warnings, err := m2.Load(created.Dir())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Libro de cuentas", p.Title())
	assert.Equal(t, 1, p.Len())
	assert.Same(t, p, m2.Current())
}

func TestLoad_RecreatesSubfolders(t *testing.T) {
	m, _ := newTestManager(t)
	created, err := m.Create("Folders", "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(created.CacheDir()))

	_, _, err = m.Load(created.Dir())
	require.NoError(t, err)
	assert.DirExists(t, created.CacheDir())
}

func TestLoad_Warnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewManager(&config.Config{}, zap.New(core))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BundlesFile), []byte(`{"bundles": []}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`{"project_metadata": {"title": "Only title"}}`), 0644))

	p, warnings, err := m.Load(dir)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "load bundles", warnings[0].Op)
	assert.Equal(t, "Only title", p.Title())
	assert.Equal(t, 1, logs.FilterMessage("project loaded with warning").Len())
}

func TestLoad_FailureKeepsCurrent(t *testing.T) {
	m, _ := newTestManager(t)
	current, err := m.Create("Keep me", "")
	require.NoError(t, err)

	broken := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(broken, BundlesFile), []byte("{oops"), 0644))

	_, _, err = m.Load(broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Same(t, current, m.Current())

	_, _, err = m.Load(filepath.Join(broken, "missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Same(t, current, m.Current())
}

func TestLoad_MissingMetadata(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BundlesFile), []byte(`{"bundles": []}`), 0644))

	_, _, err := m.Load(dir)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, m.Current())
}

func TestLoad_NotADirectory(t *testing.T) {
	m, _ := newTestManager(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, _, err := m.Load(file)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestSwitchingFlushesPrevious(t *testing.T) {
	m, _ := newTestManager(t)
	first, err := m.Create("First", "")
	require.NoError(t, err)
	// Simulate an unsaved in-memory edit.
	first.metadata.Title = "First edited"

	second, err := m.Create("Second", "")
	require.NoError(t, err)
	assert.Same(t, second, m.Current())

	reloaded := New(first.Dir())
	_, err = reloaded.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, "First edited", reloaded.Title())
}

func TestSwitching_FlushFailureKeepsCurrent(t *testing.T) {
	m, _ := newTestManager(t)
	first, err := m.Create("First", "")
	require.NoError(t, err)
	breakBundlesFile(t, first)

	other, err := m.Create("Other", "")
	require.Error(t, err)
	assert.Nil(t, other)
	assert.Same(t, first, m.Current())
}

func TestReloadSameProject(t *testing.T) {
	m, _ := newTestManager(t)
	p, err := m.Create("Same", "")
	require.NoError(t, err)

	again, _, err := m.Load(p.Dir())
	require.NoError(t, err)
	assert.Equal(t, p.Dir(), again.Dir())
	assert.Same(t, again, m.Current())
}

func TestClose(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Close(), "closing with nothing open is a no-op")

	p, err := m.Create("Closing", "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(p.BundlesPath()))

	require.NoError(t, m.Close())
	assert.Nil(t, m.Current())
	assert.FileExists(t, p.BundlesPath(), "close flushes to disk")
}

func TestList(t *testing.T) {
	m, base := newTestManager(t)
	_, err := m.Create("Zeta", "")
	require.NoError(t, err)
	alpha, err := m.Create("Alpha", "")
	require.NoError(t, err)
	require.NoError(t, alpha.AppendBundle(generic("a.jpg")))
	require.NoError(t, os.Mkdir(filepath.Join(base, "not-a-project"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(base, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, ".hidden", BundlesFile), []byte(`{}`), 0644))

	list, err := m.List("")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "Alpha", list[0].Title)
	assert.Equal(t, 1, list[0].Bundles)
	assert.Equal(t, "zeta", list[1].Name)
	assert.Equal(t, 0, list[1].Bundles)
}

func TestList_MissingParent(t *testing.T) {
	m, _ := newTestManager(t)
	list, err := m.List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}
