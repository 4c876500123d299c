package markdown

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/rogersnm/copista/internal/model"
)

// Parse reads YAML frontmatter and body from r into T.
func Parse[T any](r io.Reader) (T, string, error) {
	var meta T
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return meta, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return meta, strings.TrimSpace(string(body)), nil
}

// Marshal serializes meta as YAML frontmatter followed by body.
func Marshal[T any](meta T, body string) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// ParseBrief reads a project brief: a title in the frontmatter and the
// description as the markdown body. A brief without a title is rejected.
func ParseBrief(r io.Reader) (model.Brief, string, error) {
	brief, body, err := Parse[model.Brief](r)
	if err != nil {
		return brief, "", err
	}
	brief.Title = strings.TrimSpace(brief.Title)
	if brief.Title == "" {
		return brief, "", fmt.Errorf("brief has no title in its frontmatter")
	}
	return brief, body, nil
}

// MarshalBrief is the inverse of ParseBrief, used to hand a project's
// title and description to an editor.
func MarshalBrief(m model.Metadata) ([]byte, error) {
	return Marshal(model.Brief{Title: m.Title}, m.DescriptionText())
}
