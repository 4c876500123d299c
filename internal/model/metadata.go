package model

import "fmt"

// Metadata is the project-level description persisted in project_metadata.json.
type Metadata struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (m Metadata) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("project title is required")
	}
	return nil
}

// IsZero reports whether nothing at all was set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Description == nil
}

// DescriptionText returns the description or "" when unset.
func (m Metadata) DescriptionText() string {
	if m.Description == nil {
		return ""
	}
	return *m.Description
}

// Brief is the frontmatter of a markdown file used to seed a new project.
// The markdown body becomes the description.
type Brief struct {
	Title string `yaml:"title"`
}
