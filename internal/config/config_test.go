package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, FileName), []byte("base_projects_folder: /srv/scans\ncamera:\n  port: usb:001,059\n  target: card\n"), 0644)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/scans", cfg.BaseProjectsFolder)
	assert.Equal(t, "usb:001,059", cfg.Camera.Port)
	assert.Equal(t, TargetCard, cfg.Camera.Target)
	assert.False(t, cfg.UseCameraRAM())
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "projects"), cfg.BaseProjectsFolder)
	assert.Equal(t, "gphoto2", cfg.Camera.Binary)
	assert.Equal(t, TargetRAM, cfg.Camera.Target)
	assert.True(t, cfg.UseCameraRAM())
	assert.Equal(t, dir, cfg.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, FileName), []byte("{{bad yaml"), 0644)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{BaseProjectsFolder: "/srv/scans", LastProject: "/srv/scans/libro"}

	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.BaseProjectsFolder, loaded.BaseProjectsFolder)
	assert.Equal(t, cfg.LastProject, loaded.LastProject)
}

func TestSave_CreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir")
	cfg := &Config{LastProject: "/tmp/x"}

	require.NoError(t, Save(dir, cfg))
	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.NoError(t, err)
}

func TestSave_DoesNotPersistDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, &Config{DataDir: "/should/not/appear"}))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/should/not/appear")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("COPISTA_BASE_PROJECTS_FOLDER", "/env/projects")
	t.Setenv("COPISTA_CAMERA_PORT", "usb:002,003")
	t.Setenv("COPISTA_CAMERA_TARGET", "card")
	t.Setenv("COPISTA_GPHOTO2", "/opt/bin/gphoto2")
	t.Setenv("COPISTA_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, "/env/projects", cfg.BaseProjectsFolder)
	assert.Equal(t, "usb:002,003", cfg.Camera.Port)
	assert.Equal(t, TargetCard, cfg.Camera.Target)
	assert.Equal(t, "/opt/bin/gphoto2", cfg.Camera.Binary)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate_Rejects(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	cfg.Camera.Target = "cloud"
	assert.Error(t, cfg.Validate())

	cfg.Camera.Target = TargetRAM
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg.Log.Level = "info"
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}
