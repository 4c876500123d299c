// Package camera drives a tethered camera through the gphoto2 command-line
// tool. Every operation is one or more sequential gphoto2 invocations.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBinary = "gphoto2"
	// DefaultSettle is the pause between draining events and triggering
	// the shutter.
	DefaultSettle = 500 * time.Millisecond
)

// Target is where the camera stores a capture before download.
type Target string

const (
	TargetRAM  Target = "ram"
	TargetCard Target = "card"
)

var (
	ramTargets  = []string{"Internal RAM", "SDRAM", "RAM"}
	cardTargets = []string{"Memory card", "SD", "Card"}
)

// preferredModels are matched case-insensitively against detected models.
var preferredModels = []string{"canon", "t7"}

type Options struct {
	Runner      Runner
	Binary      string
	Port        string
	Target      Target
	DownloadDir string
	Settle      time.Duration
	Logger      *zap.Logger
	// Now is used for default capture names; nil means time.Now.
	Now func() time.Time
}

// Controller is a sequential gphoto2 client. It is not safe for
// concurrent use.
type Controller struct {
	run         Runner
	port        string
	target      Target
	downloadDir string
	settle      time.Duration
	log         *zap.Logger
	now         func() time.Time

	connected bool
	model     string
}

func New(opts Options) *Controller {
	c := &Controller{
		run:         opts.Runner,
		port:        opts.Port,
		target:      opts.Target,
		downloadDir: opts.DownloadDir,
		settle:      opts.Settle,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if c.run == nil {
		c.run = ExecRunner{Binary: opts.Binary}
	}
	if c.target == "" {
		c.target = TargetRAM
	}
	if c.downloadDir == "" {
		c.downloadDir = "."
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("camera")
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Controller) Connected() bool { return c.connected }
func (c *Controller) Model() string   { return c.model }
func (c *Controller) Port() string    { return c.port }
func (c *Controller) Target() Target  { return c.target }

// SetDownloadDir changes where captures and downloads are written.
func (c *Controller) SetDownloadDir(dir string) { c.downloadDir = dir }

// gphoto runs one invocation, prefixed with --port when one is known, and
// converts gphoto2's error output into *SDKError.
func (c *Controller) gphoto(ctx context.Context, args ...string) ([]byte, error) {
	if c.port != "" {
		args = append([]string{"--port", c.port}, args...)
	}
	c.log.Debug("gphoto2", zap.Strings("args", args))
	out, err := c.run.Run(ctx, args...)
	if err != nil {
		if errors.Is(err, ErrBinaryNotFound) {
			return out, err
		}
		if sdk := parseSDKError(out); sdk != nil {
			c.log.Debug("gphoto2 failed", zap.Int("code", sdk.Code), zap.String("message", sdk.Message))
			return out, sdk
		}
		return out, fmt.Errorf("gphoto2 %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Detect lists the cameras gphoto2 can see.
func (c *Controller) Detect(ctx context.Context) ([]Detected, error) {
	out, err := c.run.Run(ctx, "--auto-detect")
	if err != nil {
		if errors.Is(err, ErrBinaryNotFound) {
			return nil, err
		}
		if sdk := parseSDKError(out); sdk != nil {
			return nil, sdk
		}
		return nil, fmt.Errorf("auto-detect: %w", err)
	}
	return parseAutoDetect(out), nil
}

// Ports lists the ports libgphoto2 knows about.
func (c *Controller) Ports(ctx context.Context) ([]Port, error) {
	out, err := c.run.Run(ctx, "--list-ports")
	if err != nil {
		if errors.Is(err, ErrBinaryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("list ports: %w", err)
	}
	return parseListPorts(out), nil
}

// Connect picks a camera, reads its model and configures the capture
// target. A detected Canon is preferred; otherwise the first detected
// camera is used, and with none detected the configured port is tried if
// gphoto2 lists it.
func (c *Controller) Connect(ctx context.Context) error {
	cams, err := c.Detect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for i, cam := range cams {
		c.log.Info("camera detected", zap.Int("n", i+1), zap.String("model", cam.Model), zap.String("port", cam.Port))
	}

	port, err := c.choosePort(ctx, cams)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.port = port

	out, err := c.gphoto(ctx, "--summary")
	if err != nil {
		return fmt.Errorf("connect: reading summary: %w", err)
	}
	c.model = parseSummaryModel(out)
	c.connected = true

	if err := c.ConfigureCaptureTarget(ctx); err != nil {
		c.connected = false
		return fmt.Errorf("connect: %w", err)
	}
	c.log.Info("camera connected", zap.String("model", c.model), zap.String("port", c.port), zap.String("target", string(c.target)))
	return nil
}

func (c *Controller) choosePort(ctx context.Context, cams []Detected) (string, error) {
	for _, cam := range cams {
		lower := strings.ToLower(cam.Model)
		for _, want := range preferredModels {
			if strings.Contains(lower, want) {
				return cam.Port, nil
			}
		}
	}
	if len(cams) > 0 {
		return cams[0].Port, nil
	}

	c.log.Warn("no camera auto-detected")
	if c.port == "" {
		return "", ErrNoCamera
	}
	ports, err := c.Ports(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.Path == c.port {
			return c.port, nil
		}
	}
	var usb []string
	for _, p := range ports {
		if strings.HasPrefix(strings.ToLower(p.Path), "usb") {
			usb = append(usb, p.Path)
		}
	}
	c.log.Warn("configured port not found", zap.String("port", c.port), zap.Strings("usb_ports", usb))
	return "", fmt.Errorf("%w: port %s not available", ErrNoCamera, c.port)
}

// ConfigureCaptureTarget points capturetarget at RAM or the memory card.
// A camera without a capturetarget entry only logs a warning.
func (c *Controller) ConfigureCaptureTarget(ctx context.Context) error {
	entry, err := c.GetConfig(ctx, "capturetarget")
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			c.log.Warn("camera has no capturetarget setting")
			return nil
		}
		return fmt.Errorf("reading capture target: %w", err)
	}
	c.log.Debug("capture target choices", zap.Strings("choices", entry.Choices))

	choice := pickTarget(c.target, entry.Choices)
	if choice == "" {
		c.log.Warn("no usable capture target choice", zap.String("target", string(c.target)))
		return nil
	}
	if choice == entry.Current {
		return nil
	}
	if err := c.SetConfig(ctx, "capturetarget", choice); err != nil {
		if c.target == TargetCard {
			c.log.Warn("could not select the memory card; check that a card is inserted", zap.Error(err))
		}
		return fmt.Errorf("setting capture target: %w", err)
	}
	c.log.Info("capture target set", zap.String("value", choice))
	return nil
}

// pickTarget returns the first known name for target present in choices,
// else choice 0 for RAM or choice 1 for card.
func pickTarget(target Target, choices []string) string {
	names, fallback := ramTargets, 0
	if target == TargetCard {
		names, fallback = cardTargets, 1
	}
	for _, n := range names {
		for _, ch := range choices {
			if ch == n {
				return ch
			}
		}
	}
	if fallback < len(choices) {
		return choices[fallback]
	}
	return ""
}

// Summary returns the raw `gphoto2 --summary` text.
func (c *Controller) Summary(ctx context.Context) (string, error) {
	if !c.connected {
		return "", ErrNotConnected
	}
	out, err := c.gphoto(ctx, "--summary")
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	return string(out), nil
}

// drainEvents waits briefly for pending camera events. Errors are ignored.
func (c *Controller) drainEvents(ctx context.Context, d time.Duration) {
	if _, err := c.gphoto(ctx, "--wait-event="+formatDuration(d)); err != nil {
		c.log.Debug("no pending events", zap.Error(err))
	}
}

func formatDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// DefaultCaptureName is the name used when Capture is given none. %C is
// expanded by gphoto2 to the camera's file extension.
func DefaultCaptureName(t time.Time) string {
	return "capture_" + t.Format("20060102_150405") + ".%C"
}

// Capture triggers the shutter, downloads the image into the download
// directory and returns its local path. On a card target the file stays
// on the card unless deleteFromCamera is set.
func (c *Controller) Capture(ctx context.Context, filename string, deleteFromCamera bool) (string, error) {
	if !c.connected {
		return "", ErrNotConnected
	}
	if filename == "" {
		filename = DefaultCaptureName(c.now())
	}
	if err := os.MkdirAll(c.downloadDir, 0755); err != nil {
		return "", fmt.Errorf("capture: creating download dir: %w", err)
	}
	dest := filepath.Join(c.downloadDir, filename)

	c.drainEvents(ctx, time.Second)
	if c.settle > 0 {
		select {
		case <-time.After(c.settle):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	args := []string{"--capture-image-and-download", "--filename", dest, "--force-overwrite"}
	if c.target == TargetCard && !deleteFromCamera {
		args = append(args, "--keep")
	}
	out, err := c.gphoto(ctx, args...)
	if err != nil {
		if errors.Is(err, ErrCameraBusy) {
			c.log.Info("camera busy, draining events")
			for range 3 {
				c.drainEvents(ctx, time.Second)
			}
			return "", fmt.Errorf("capture: %w; try again in a few seconds", err)
		}
		return "", fmt.Errorf("capture: %w", err)
	}

	saved := parseSavedFiles(out)
	if len(saved) == 0 {
		return "", fmt.Errorf("capture: gphoto2 reported no saved file")
	}
	path := saved[len(saved)-1]
	c.log.Info("image captured", zap.String("path", path))
	return path, nil
}

// ListFiles lists every file stored on the camera.
func (c *Controller) ListFiles(ctx context.Context) ([]File, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	out, err := c.gphoto(ctx, "--list-files")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := parseListFiles(out)
	c.log.Debug("files on camera", zap.Int("count", len(files)))
	return files, nil
}

// Download copies f from the camera into the download directory, as
// localName if set, optionally deleting it from the camera afterwards.
func (c *Controller) Download(ctx context.Context, f File, localName string, deleteFromCamera bool) (string, error) {
	if !c.connected {
		return "", ErrNotConnected
	}
	if localName == "" {
		localName = f.Name
	}
	if err := os.MkdirAll(c.downloadDir, 0755); err != nil {
		return "", fmt.Errorf("download: creating download dir: %w", err)
	}
	dest := filepath.Join(c.downloadDir, localName)
	num := fmt.Sprint(f.Number)

	if _, err := c.gphoto(ctx, "--folder", f.Folder, "--get-file", num, "--filename", dest, "--force-overwrite"); err != nil {
		return "", fmt.Errorf("download %s/%s: %w", f.Folder, f.Name, err)
	}
	if deleteFromCamera {
		if _, err := c.gphoto(ctx, "--folder", f.Folder, "--delete-file", num); err != nil {
			return dest, fmt.Errorf("delete %s/%s from camera: %w", f.Folder, f.Name, err)
		}
	}
	c.log.Info("file downloaded", zap.String("path", dest))
	return dest, nil
}

// Tethered runs gphoto2 in tethered mode, saving every shot taken on the
// camera body into dir, until ctx is done.
func (c *Controller) Tethered(ctx context.Context, dir string) error {
	if !c.connected {
		return ErrNotConnected
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("tethered: %w", err)
	}
	pattern := filepath.Join(dir, "%f.%C")
	c.log.Info("tethered capture started", zap.String("dir", dir))
	_, err := c.gphoto(ctx, "--capture-tethered", "--filename", pattern, "--force-overwrite")
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tethered: %w", err)
	}
	return nil
}
