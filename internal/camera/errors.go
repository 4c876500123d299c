package camera

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNotConnected   = errors.New("camera not connected")
	ErrBinaryNotFound = errors.New("gphoto2 binary not found")

	ErrCameraBusy     = errors.New("camera busy (I/O in progress)")
	ErrNoCamera       = errors.New("no camera detected")
	ErrPortClaimed    = errors.New("camera port is claimed by another process")
	ErrNotSupported   = errors.New("operation not supported by the camera")
	ErrTimeout        = errors.New("camera timed out")
	ErrFileNotFound   = errors.New("file not found on the camera")
	ErrConfigNotFound = errors.New("configuration key not found")
	ErrReadOnly       = errors.New("configuration key is read-only")
)

// gphoto2 result codes, from gphoto2-port-result.h and gphoto2-result.h.
var codeSentinels = map[int]error{
	-110: ErrCameraBusy,
	-105: ErrNoCamera,
	-52:  ErrNoCamera,
	-53:  ErrPortClaimed,
	-6:   ErrNotSupported,
	-10:  ErrTimeout,
	-108: ErrFileNotFound,
}

// SDKError is a failure reported by gphoto2 as "*** Error (code: 'msg') ***".
type SDKError struct {
	Code    int
	Message string
	// Detail holds the human-readable lines gphoto2 printed before the
	// error marker, if any.
	Detail string
}

func (e *SDKError) Error() string {
	msg := fmt.Sprintf("gphoto2 error %d: %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *SDKError) Is(target error) bool {
	if s, ok := codeSentinels[e.Code]; ok && s == target {
		return true
	}
	return target == ErrConfigNotFound && strings.Contains(e.Detail, "not found in configuration tree")
}

var errorLine = regexp.MustCompile(`\*\*\* Error \((-?\d+): '([^']*)'\) \*\*\*`)

// parseSDKError extracts the first gphoto2 error from output, or nil.
func parseSDKError(output []byte) *SDKError {
	text := string(output)
	m := errorLine.FindStringSubmatchIndex(text)
	if m == nil {
		if strings.Contains(text, "not found in configuration tree") {
			return &SDKError{Code: -1, Message: "Unspecified error", Detail: detailLines(text)}
		}
		return nil
	}
	code, _ := strconv.Atoi(text[m[2]:m[3]])
	return &SDKError{
		Code:    code,
		Message: text[m[4]:m[5]],
		Detail:  detailLines(text[:m[0]]),
	}
}

func detailLines(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "***") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "; ")
}
