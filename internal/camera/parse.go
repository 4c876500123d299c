package camera

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// Detected is one line of `gphoto2 --auto-detect`.
type Detected struct {
	Model string
	Port  string
}

// Port is one line of `gphoto2 --list-ports`.
type Port struct {
	Path        string
	Description string
}

// File is one entry of `gphoto2 --list-files`. Number is the index
// within Folder that --get-file and --delete-file expect.
type File struct {
	Folder string
	Number int
	Name   string
	SizeKB int64
	Mime   string
}

// ConfigEntry is the parsed output of `gphoto2 --get-config KEY`.
type ConfigEntry struct {
	Key      string
	Label    string
	Type     string
	Current  string
	Choices  []string
	Readonly bool
}

// HasChoice reports whether v is one of the entry's choices.
func (c ConfigEntry) HasChoice(v string) bool {
	for _, ch := range c.Choices {
		if ch == v {
			return true
		}
	}
	return false
}

func lines(out []byte) []string {
	var ls []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		ls = append(ls, strings.TrimRight(sc.Text(), " \t\r"))
	}
	return ls
}

// tableRows returns the lines after the dashed separator of a gphoto2
// two-column table.
func tableRows(out []byte) []string {
	var rows []string
	inBody := false
	for _, l := range lines(out) {
		if !inBody {
			if strings.HasPrefix(strings.TrimSpace(l), "---") {
				inBody = true
			}
			continue
		}
		if strings.TrimSpace(l) != "" {
			rows = append(rows, l)
		}
	}
	return rows
}

func parseAutoDetect(out []byte) []Detected {
	var cams []Detected
	for _, row := range tableRows(out) {
		fields := strings.Fields(row)
		if len(fields) < 2 {
			continue
		}
		port := fields[len(fields)-1]
		model := strings.TrimSpace(row[:strings.LastIndex(row, port)])
		cams = append(cams, Detected{Model: model, Port: port})
	}
	return cams
}

func parseListPorts(out []byte) []Port {
	var ports []Port
	for _, row := range tableRows(out) {
		fields := strings.Fields(row)
		if len(fields) == 0 {
			continue
		}
		p := Port{Path: fields[0]}
		if len(fields) > 1 {
			p.Description = strings.TrimSpace(row[strings.Index(row, fields[0])+len(fields[0]):])
		}
		ports = append(ports, p)
	}
	return ports
}

func parseGetConfig(key string, out []byte) ConfigEntry {
	e := ConfigEntry{Key: key}
	for _, l := range lines(out) {
		name, value, ok := strings.Cut(l, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch name {
		case "Label":
			e.Label = value
		case "Type":
			e.Type = value
		case "Current":
			e.Current = value
		case "Readonly":
			e.Readonly = value == "1"
		case "Choice":
			// "Choice: 0 Internal RAM"
			if _, choice, ok := strings.Cut(value, " "); ok {
				e.Choices = append(e.Choices, strings.TrimSpace(choice))
			}
		}
	}
	return e
}

func parseListConfig(out []byte) []string {
	var keys []string
	for _, l := range lines(out) {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "/") {
			keys = append(keys, l)
		}
	}
	return keys
}

var (
	folderLine = regexp.MustCompile(`in folder '([^']*)'`)
	fileLine   = regexp.MustCompile(`^#(\d+)\s+(\S+)\s+(?:[a-z-]+\s+)?(\d+)\s+KB(?:\s+(\S+))?`)
)

func parseListFiles(out []byte) []File {
	var (
		files  []File
		folder = "/"
	)
	for _, l := range lines(out) {
		if m := folderLine.FindStringSubmatch(l); m != nil {
			folder = m[1]
			continue
		}
		m := fileLine.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		size, _ := strconv.ParseInt(m[3], 10, 64)
		files = append(files, File{Folder: folder, Number: n, Name: m[2], SizeKB: size, Mime: m[4]})
	}
	return files
}

// parseSummaryModel returns the value of the first "Model:" line.
func parseSummaryModel(out []byte) string {
	for _, l := range lines(out) {
		if v, ok := strings.CutPrefix(strings.TrimSpace(l), "Model:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseSavedFiles returns the local paths from "Saving file as X" lines.
func parseSavedFiles(out []byte) []string {
	var paths []string
	for _, l := range lines(out) {
		if v, ok := strings.CutPrefix(strings.TrimSpace(l), "Saving file as "); ok {
			paths = append(paths, strings.TrimSpace(v))
		}
	}
	return paths
}
