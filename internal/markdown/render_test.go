package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/project"
)

func TestRenderBundleTable(t *testing.T) {
	assert.Equal(t, "No bundles yet.", RenderBundleTable(nil))

	out := RenderBundleTable([]model.Bundle{
		{Type: model.BundleGeneric, Images: []string{"left.jpg", "right.jpg"}},
		{Type: model.BundleGeneric, Images: []string{"cover.jpg"}},
	})
	assert.Contains(t, out, "left.jpg, right.jpg")
	assert.Contains(t, out, "cover.jpg")
	assert.Contains(t, out, "generic")
}

func TestRenderProjectTable(t *testing.T) {
	assert.Equal(t, "No projects found.", RenderProjectTable(nil))
	out := RenderProjectTable([]project.Summary{{Name: "atlas", Title: "Atlas", Bundles: 3}})
	assert.Contains(t, out, "atlas")
	assert.Contains(t, out, "Atlas")
}

func TestRenderCameraTables(t *testing.T) {
	assert.Equal(t, "No cameras detected.", RenderCameraTable(nil))
	assert.Contains(t, RenderCameraTable([]camera.Detected{{Model: "Canon EOS 1500D", Port: "usb:001,059"}}), "usb:001,059")
	assert.Contains(t, RenderPortTable([]camera.Port{{Path: "ptpip:", Description: "PTP/IP Connection"}}), "PTP/IP Connection")
	assert.Contains(t, RenderFileTable([]camera.File{{Folder: "/DCIM", Name: "IMG_1.JPG", SizeKB: 10}}), "10 KB")
}

func TestRenderSettingsTable(t *testing.T) {
	out := RenderSettingsTable(map[string]*camera.ConfigEntry{
		"iso":      {Key: "/main/imgsettings/iso", Current: "400"},
		"aperture": nil,
	})
	assert.Contains(t, out, "/main/imgsettings/iso")
	assert.Contains(t, out, "aperture")
	assert.NotContains(t, out, "focus_mode")
}

func TestRenderConfigEntry(t *testing.T) {
	out := RenderConfigEntry(camera.ConfigEntry{Key: "iso", Label: "ISO Speed", Current: "100", Choices: []string{"Auto", "100"}, Readonly: true})
	assert.Contains(t, out, "ISO Speed")
	assert.Contains(t, out, "Auto | 100")
	assert.Contains(t, out, "Readonly")
}

func TestRenderField(t *testing.T) {
	assert.Contains(t, RenderField("Title", "Atlas"), "Atlas")
	assert.Contains(t, RenderWarning("careful"), "careful")
	assert.Contains(t, RenderCheck(false, "gphoto2 found"), "gphoto2 found")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Heading\n\nSome *text*.")
	assert.NoError(t, err)
	assert.Contains(t, out, "Heading")
}
