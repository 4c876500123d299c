package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/project"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
)

// RenderBundleTable lists bundles with 1-based positions.
func RenderBundleTable(bundles []model.Bundle) string {
	if len(bundles) == 0 {
		return "No bundles yet."
	}
	rows := make([][]string, len(bundles))
	for i, b := range bundles {
		rows[i] = []string{fmt.Sprint(i + 1), string(b.Type), fmt.Sprint(len(b.Images)), strings.Join(b.Images, ", ")}
	}
	return renderTable([]string{"#", "Type", "Pages", "Images"}, rows)
}

func RenderProjectTable(projects []project.Summary) string {
	if len(projects) == 0 {
		return "No projects found."
	}
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{p.Name, p.Title, fmt.Sprint(p.Bundles)}
	}
	return renderTable([]string{"Directory", "Title", "Bundles"}, rows)
}

func RenderCameraTable(cams []camera.Detected) string {
	if len(cams) == 0 {
		return "No cameras detected."
	}
	rows := make([][]string, len(cams))
	for i, c := range cams {
		rows[i] = []string{c.Model, c.Port}
	}
	return renderTable([]string{"Model", "Port"}, rows)
}

func RenderPortTable(ports []camera.Port) string {
	if len(ports) == 0 {
		return "No ports found."
	}
	rows := make([][]string, len(ports))
	for i, p := range ports {
		rows[i] = []string{p.Path, p.Description}
	}
	return renderTable([]string{"Path", "Description"}, rows)
}

func RenderFileTable(files []camera.File) string {
	if len(files) == 0 {
		return "No files on the camera."
	}
	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{fmt.Sprint(i + 1), f.Folder, f.Name, fmt.Sprintf("%d KB", f.SizeKB), f.Mime}
	}
	return renderTable([]string{"#", "Folder", "Name", "Size", "Type"}, rows)
}

// RenderSettingsTable shows common camera settings in table order;
// settings the camera lacks are shown as "-".
func RenderSettingsTable(settings map[string]*camera.ConfigEntry) string {
	var rows [][]string
	for _, s := range camera.CommonSettingsTable {
		e, ok := settings[s.Name]
		if !ok {
			continue
		}
		if e == nil {
			rows = append(rows, []string{s.Name, "-", "-"})
			continue
		}
		rows = append(rows, []string{s.Name, e.Key, e.Current})
	}
	return renderTable([]string{"Setting", "Key", "Current"}, rows)
}

// RenderConfigEntry describes one camera configuration entry.
func RenderConfigEntry(e camera.ConfigEntry) string {
	fields := []string{
		RenderField("Label", e.Label),
		RenderField("Type", e.Type),
		RenderField("Current", e.Current),
	}
	if e.Readonly {
		fields = append(fields, RenderField("Readonly", "yes"))
	}
	if len(e.Choices) > 0 {
		fields = append(fields, RenderField("Choices", strings.Join(e.Choices, " | ")))
	}
	return RenderEntityHeader(e.Key, fields)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			return cellStyle
		})
	return t.Render()
}
