package editor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

func editorCmd() string {
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	return "vi"
}

func viewerCmd() string {
	if v := os.Getenv("COPISTA_VIEWER"); v != "" {
		return v
	}
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

func Open(filepath string) error {
	editor := editorCmd()
	cmd := exec.Command(editor, filepath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q: %w", editor, err)
	}
	return nil
}

// Edit writes initial to a temporary file named after pattern, opens it
// in the user's editor and returns the saved contents.
func Edit(initial []byte, pattern string) ([]byte, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(initial); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := Open(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading edited file: %w", err)
	}
	return data, nil
}

// View opens files in the image viewer without waiting for it to exit.
func View(paths ...string) error {
	viewer := viewerCmd()
	cmd := exec.Command(viewer, paths...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("viewer %q: %w", viewer, err)
	}
	go cmd.Wait()
	return nil
}
