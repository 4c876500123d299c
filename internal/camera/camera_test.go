package camera

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const autoDetectOut = `Model                          Port
----------------------------------------------------------
Nikon DSC D3200                usb:001,007
Canon EOS 1500D                usb:001,059
`

const listPortsOut = `Devices found: 3
Path                             Description
--------------------------------------------------------------
ptpip:                           PTP/IP Connection
disk:/media/user/disk            Media 'disk'
usb:001,059                      Universal Serial Bus
`

const captureTargetOut = `Label: Capture Target
Readonly: 0
Type: RADIO
Current: Memory card
Choice: 0 Internal RAM
Choice: 1 Memory card
END
`

const summaryOut = `Camera summary:
Manufacturer: Canon Inc.
Model: Canon EOS 1500D
  Version: 3-1.0.0
`

const listFilesOut = `There is no file in folder '/'.
There is no file in folder '/store_00020001'.
There are 2 files in folder '/store_00020001/DCIM/100CANON':
#1     IMG_0001.JPG               rd  6041 KB image/jpeg 1700000000
#2     IMG_0002.CR2               rd 24120 KB image/x-canon-cr2
`

const busyOut = `*** Error ***
An error occurred in the io-library ('I/O in progress'): No error description available
*** Error (-110: 'I/O in progress') ***
`

type response struct {
	out string
	err error
}

// fakeRunner answers gphoto2 invocations from canned output, keyed by the
// space-joined arguments without the --port prefix.
type fakeRunner struct {
	responses map[string]response
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "--port" {
		args = args[2:]
	}
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	for prefix, r := range f.responses {
		if key == prefix || strings.HasPrefix(key, prefix+" ") {
			return []byte(r.out), r.err
		}
	}
	return nil, nil
}

func (f *fakeRunner) called(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

var exitErr = errors.New("exit status 1")

func connectedFake() *fakeRunner {
	return &fakeRunner{responses: map[string]response{
		"--auto-detect":              {out: autoDetectOut},
		"--summary":                  {out: summaryOut},
		"--get-config capturetarget": {out: captureTargetOut},
	}}
}

func newTestController(t *testing.T, r Runner, target Target) *Controller {
	t.Helper()
	return New(Options{
		Runner:      r,
		Target:      target,
		DownloadDir: t.TempDir(),
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
	})
}

func TestParseAutoDetect(t *testing.T) {
	cams := parseAutoDetect([]byte(autoDetectOut))
	assert.Equal(t, []Detected{
		{Model: "Nikon DSC D3200", Port: "usb:001,007"},
		{Model: "Canon EOS 1500D", Port: "usb:001,059"},
	}, cams)

	assert.Empty(t, parseAutoDetect([]byte("Model    Port\n--------------\n")))
}

func TestParseListPorts(t *testing.T) {
	ports := parseListPorts([]byte(listPortsOut))
	require.Len(t, ports, 3)
	assert.Equal(t, Port{Path: "disk:/media/user/disk", Description: "Media 'disk'"}, ports[1])
	assert.Equal(t, "usb:001,059", ports[2].Path)
}

func TestParseGetConfig(t *testing.T) {
	e := parseGetConfig("capturetarget", []byte(captureTargetOut))
	assert.Equal(t, "Capture Target", e.Label)
	assert.Equal(t, "RADIO", e.Type)
	assert.Equal(t, "Memory card", e.Current)
	assert.Equal(t, []string{"Internal RAM", "Memory card"}, e.Choices)
	assert.False(t, e.Readonly)
	assert.True(t, e.HasChoice("Internal RAM"))

	ro := parseGetConfig("serialnumber", []byte("Label: Serial Number\nReadonly: 1\nType: TEXT\nCurrent: 0123\nEND\n"))
	assert.True(t, ro.Readonly)
	assert.Empty(t, ro.Choices)
}

func TestParseListFiles(t *testing.T) {
	files := parseListFiles([]byte(listFilesOut))
	require.Len(t, files, 2)
	assert.Equal(t, File{Folder: "/store_00020001/DCIM/100CANON", Number: 1, Name: "IMG_0001.JPG", SizeKB: 6041, Mime: "image/jpeg"}, files[0])
	assert.Equal(t, "IMG_0002.CR2", files[1].Name)
	assert.Equal(t, int64(24120), files[1].SizeKB)
}

func TestParseListConfig(t *testing.T) {
	keys := parseListConfig([]byte("/main/actions/autofocusdrive\n/main/imgsettings/iso\n*** Error ***\n"))
	assert.Equal(t, []string{"/main/actions/autofocusdrive", "/main/imgsettings/iso"}, keys)
}

func TestParseSDKError(t *testing.T) {
	e := parseSDKError([]byte(busyOut))
	require.NotNil(t, e)
	assert.Equal(t, -110, e.Code)
	assert.Equal(t, "I/O in progress", e.Message)
	assert.True(t, errors.Is(e, ErrCameraBusy))
	assert.False(t, errors.Is(e, ErrNoCamera))

	assert.Nil(t, parseSDKError([]byte("all good\n")))

	nf := parseSDKError([]byte("capturetarget not found in configuration tree.\n*** Error (-1: 'Unspecified error') ***\n"))
	require.NotNil(t, nf)
	assert.True(t, errors.Is(nf, ErrConfigNotFound))

	for code, want := range map[int]error{-105: ErrNoCamera, -52: ErrNoCamera, -53: ErrPortClaimed, -6: ErrNotSupported, -10: ErrTimeout, -108: ErrFileNotFound} {
		assert.True(t, errors.Is(&SDKError{Code: code}, want), "code %d", code)
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "iso", normalizeKey("iso"))
	assert.Equal(t, "/main/imgsettings/iso", normalizeKey("imgsettings.iso"))
	assert.Equal(t, "/main/imgsettings/iso", normalizeKey("/main/imgsettings/iso"))
}

func TestPickTarget(t *testing.T) {
	assert.Equal(t, "Internal RAM", pickTarget(TargetRAM, []string{"Memory card", "Internal RAM"}))
	assert.Equal(t, "Memory card", pickTarget(TargetCard, []string{"Internal RAM", "Memory card"}))
	assert.Equal(t, "A", pickTarget(TargetRAM, []string{"A", "B"}))
	assert.Equal(t, "B", pickTarget(TargetCard, []string{"A", "B"}))
	assert.Equal(t, "", pickTarget(TargetCard, []string{"A"}))
}

func TestConnect_PrefersCanon(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetRAM)

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Connected())
	assert.Equal(t, "usb:001,059", c.Port())
	assert.Equal(t, "Canon EOS 1500D", c.Model())
	assert.Equal(t, 1, r.called("--set-config-value capturetarget=Internal RAM"))
}

func TestConnect_TargetAlreadySet(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetCard)

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, 0, r.called("--set-config-value"))
}

func TestConnect_FallbackPort(t *testing.T) {
	r := connectedFake()
	r.responses["--auto-detect"] = response{out: "Model   Port\n------------\n"}
	r.responses["--list-ports"] = response{out: listPortsOut}

	c := New(Options{Runner: r, Port: "usb:001,059", DownloadDir: t.TempDir()})
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, "usb:001,059", c.Port())
}

func TestConnect_NoCamera(t *testing.T) {
	r := &fakeRunner{responses: map[string]response{
		"--auto-detect": {out: "Model   Port\n------------\n"},
		"--list-ports":  {out: listPortsOut},
	}}

	c := newTestController(t, r, TargetRAM)
	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoCamera)
	assert.False(t, c.Connected())

	c = New(Options{Runner: r, Port: "usb:009,999"})
	assert.ErrorIs(t, c.Connect(context.Background()), ErrNoCamera)
}

func TestConnect_MissingCaptureTargetWarns(t *testing.T) {
	r := connectedFake()
	r.responses["--get-config capturetarget"] = response{
		out: "capturetarget not found in configuration tree.\n*** Error (-1: 'Unspecified error') ***\n",
		err: exitErr,
	}
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(Options{Runner: r, Logger: zap.New(core)})

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("camera has no capturetarget setting").Len())
}

func TestBinaryNotFound(t *testing.T) {
	c := New(Options{Binary: filepath.Join(t.TempDir(), "no-such-gphoto2")})
	_, err := c.Detect(context.Background())
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestNotConnected(t *testing.T) {
	c := newTestController(t, &fakeRunner{}, TargetRAM)
	ctx := context.Background()

	_, err := c.Capture(ctx, "", false)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.ListFiles(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.GetConfig(ctx, "iso")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Tethered(ctx, t.TempDir()), ErrNotConnected)
}

func TestCapture(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetRAM)
	require.NoError(t, c.Connect(context.Background()))

	dest := filepath.Join(c.downloadDir, "capture_20260304_050607.jpg")
	r.responses["--capture-image-and-download"] = response{
		out: "New file is in location /capt0000.jpg on the camera\nSaving file as " + dest + "\nDeleting file /capt0000.jpg on the camera\n",
	}

	got, err := c.Capture(context.Background(), "", false)
	require.NoError(t, err)
	assert.Equal(t, dest, got)
	assert.Equal(t, 1, r.called("--wait-event=1s"))
	assert.Equal(t, 1, r.called("--capture-image-and-download --filename "+filepath.Join(c.downloadDir, "capture_20260304_050607.%C")))
	assert.Equal(t, 0, r.called("--capture-image-and-download --filename "+filepath.Join(c.downloadDir, "capture_20260304_050607.%C")+" --force-overwrite --keep"))
}

func TestCapture_CardKeepsFile(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetCard)
	require.NoError(t, c.Connect(context.Background()))
	r.responses["--capture-image-and-download"] = response{out: "Saving file as /x/page.jpg\n"}

	_, err := c.Capture(context.Background(), "page.jpg", false)
	require.NoError(t, err)
	assert.Equal(t, 1, r.called("--capture-image-and-download --filename "+filepath.Join(c.downloadDir, "page.jpg")+" --force-overwrite --keep"))

	_, err = c.Capture(context.Background(), "page.jpg", true)
	require.NoError(t, err)
	assert.Equal(t, 1, r.called("--capture-image-and-download --filename "+filepath.Join(c.downloadDir, "page.jpg")+" --force-overwrite --keep"))
}

func TestCapture_Busy(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetRAM)
	require.NoError(t, c.Connect(context.Background()))
	r.responses["--capture-image-and-download"] = response{out: busyOut, err: exitErr}

	_, err := c.Capture(context.Background(), "page.jpg", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCameraBusy)
	// one drain before the shot, three after the failure
	assert.Equal(t, 4, r.called("--wait-event=1s"))
}

func TestCapture_NoSavedFile(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetRAM)
	require.NoError(t, c.Connect(context.Background()))
	r.responses["--capture-image-and-download"] = response{out: "\n"}

	_, err := c.Capture(context.Background(), "page.jpg", false)
	assert.Error(t, err)
}

func TestListFilesAndDownload(t *testing.T) {
	r := connectedFake()
	r.responses["--list-files"] = response{out: listFilesOut}
	c := newTestController(t, r, TargetCard)
	require.NoError(t, c.Connect(context.Background()))

	files, err := c.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)

	dest, err := c.Download(context.Background(), files[1], "", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.downloadDir, "IMG_0002.CR2"), dest)
	assert.Equal(t, 1, r.called("--folder /store_00020001/DCIM/100CANON --get-file 2"))
	assert.Equal(t, 1, r.called("--folder /store_00020001/DCIM/100CANON --delete-file 2"))
}

func TestSetConfig_ReadOnly(t *testing.T) {
	r := connectedFake()
	r.responses["--get-config serialnumber"] = response{out: "Label: Serial Number\nReadonly: 1\nType: TEXT\nCurrent: 0123\n"}
	c := newTestController(t, r, TargetCard)
	require.NoError(t, c.Connect(context.Background()))

	err := c.SetConfig(context.Background(), "serialnumber", "42")
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, 0, r.called("--set-config-value serialnumber"))
}

func TestSetConfig_DottedKey(t *testing.T) {
	r := connectedFake()
	r.responses["--get-config /main/imgsettings/iso"] = response{out: "Label: ISO Speed\nReadonly: 0\nType: RADIO\nCurrent: Auto\nChoice: 0 Auto\nChoice: 1 100\n"}
	c := newTestController(t, r, TargetCard)
	require.NoError(t, c.Connect(context.Background()))

	require.NoError(t, c.SetConfig(context.Background(), "imgsettings.iso", "100"))
	assert.Equal(t, 1, r.called("--set-config-value /main/imgsettings/iso=100"))
}

func TestCommonSettings(t *testing.T) {
	r := connectedFake()
	r.responses["--list-config"] = response{out: "/main/imgsettings/iso\n/main/capturesettings/shutterspeed\n/main/capturesettings/aperture\n/main/settings/capturetarget\n"}
	r.responses["--get-config /main/imgsettings/iso"] = response{out: "Label: ISO Speed\nCurrent: 400\n"}
	r.responses["--get-config /main/capturesettings/shutterspeed"] = response{out: "Label: Shutter Speed\nCurrent: 1/60\n"}
	r.responses["--get-config /main/capturesettings/aperture"] = response{out: "Label: Aperture\nCurrent: 5.6\n"}
	c := newTestController(t, r, TargetCard)
	require.NoError(t, c.Connect(context.Background()))

	got, err := c.CommonSettings(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got["iso"])
	assert.Equal(t, "400", got["iso"].Current)
	assert.Equal(t, "1/60", got["shutter_speed"].Current)
	assert.Nil(t, got["white_balance"])
	assert.Contains(t, got, "focus_mode")

	res, err := c.SetCommonSettings(context.Background(), map[string]string{"iso": "800", "white_balance": "Daylight"})
	require.NoError(t, err)
	assert.NoError(t, res["iso"])
	assert.ErrorIs(t, res["white_balance"], ErrConfigNotFound)
}

func TestTethered_StopsOnCancel(t *testing.T) {
	r := connectedFake()
	c := newTestController(t, r, TargetRAM)
	require.NoError(t, c.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.responses["--capture-tethered"] = response{err: context.Canceled}
	assert.NoError(t, c.Tethered(ctx, t.TempDir()))
}

func TestDiagnose(t *testing.T) {
	r := &fakeRunner{responses: map[string]response{
		"--auto-detect": {out: autoDetectOut},
		"--list-ports":  {out: listPortsOut},
	}}
	d := New(Options{Runner: r}).Diagnose(context.Background())
	assert.True(t, d.OK())
	assert.Len(t, d.Cameras, 2)
	assert.Len(t, d.Ports, 3)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1s", formatDuration(time.Second))
	assert.Equal(t, "500ms", formatDuration(500*time.Millisecond))
}
