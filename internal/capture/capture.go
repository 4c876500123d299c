// Package capture acquires page spreads from a source and adds them to a
// project as bundles.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/dummy"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/progress"
	"github.com/rogersnm/copista/internal/project"
)

// Source produces the two page images of one open-book spread in dir.
type Source interface {
	CaptureSpread(ctx context.Context, dir string) (left, right string, err error)
}

var stagingName = func(side, ext string) string {
	return uuid.NewString() + "_" + side + ext
}

// DummySource renders synthetic pages.
type DummySource struct {
	Gen *dummy.Generator
}

func (s DummySource) CaptureSpread(_ context.Context, dir string) (string, string, error) {
	gen := s.Gen
	if gen == nil {
		gen = dummy.NewRandom()
	}
	left := filepath.Join(dir, stagingName("left", ".jpg"))
	right := filepath.Join(dir, stagingName("right", ".jpg"))
	if err := gen.Spread(left, right); err != nil {
		os.Remove(left)
		os.Remove(right)
		return "", "", fmt.Errorf("dummy capture: %w", err)
	}
	return left, right, nil
}

// CameraSource takes two consecutive shots with a connected camera, left
// page first.
type CameraSource struct {
	Camera           *camera.Controller
	DeleteFromCamera bool
}

func (s CameraSource) CaptureSpread(ctx context.Context, dir string) (string, string, error) {
	s.Camera.SetDownloadDir(dir)
	left, err := s.Camera.Capture(ctx, stagingName("left", ".%C"), s.DeleteFromCamera)
	if err != nil {
		return "", "", fmt.Errorf("capturing left page: %w", err)
	}
	right, err := s.Camera.Capture(ctx, stagingName("right", ".%C"), s.DeleteFromCamera)
	if err != nil {
		os.Remove(left)
		return "", "", fmt.Errorf("capturing right page: %w", err)
	}
	return left, right, nil
}

// IntoProject captures one spread into p's staging folder and inserts it
// as a bundle before index. Capturing and copying run on a worker while
// ind is shown; the insert happens on the calling goroutine. Staged files
// are removed either way.
func IntoProject(ctx context.Context, p *project.Project, src Source, ind progress.Indicator, index int) (model.Bundle, error) {
	if index < 0 || index > p.Len() {
		return model.Bundle{}, &project.Error{
			Kind: project.KindValidation,
			Op:   "capture",
			Err:  fmt.Errorf("position %d out of range (project has %d bundles)", index, p.Len()),
		}
	}
	stageDir := p.CaptureDir()

	names, err := progress.Run(ctx, ind, "Capturing spread", func() ([]string, error) {
		if err := os.MkdirAll(stageDir, 0755); err != nil {
			return nil, fmt.Errorf("capture: staging folder: %w", err)
		}
		left, right, err := src.CaptureSpread(ctx, stageDir)
		if err != nil {
			return nil, err
		}
		defer os.Remove(left)
		defer os.Remove(right)
		return p.CopyImages([]string{left, right})
	})
	if err != nil {
		return model.Bundle{}, err
	}
	return p.InsertCopied(model.BundleGeneric, names, index)
}
