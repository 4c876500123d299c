package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Runner executes one gphoto2 invocation and returns its combined output.
// A non-zero exit is returned as an error alongside the output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the gphoto2 binary as a subprocess.
type ExecRunner struct {
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)) {
		return out, fmt.Errorf("%w: %s", ErrBinaryNotFound, bin)
	}
	return out, err
}
