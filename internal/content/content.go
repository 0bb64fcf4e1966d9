// Package content holds the read-only portfolio tables rendered by the site:
// experience, education, certifications, skills and projects.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// ErrInvalidContent is returned when a content file is missing required fields.
var ErrInvalidContent = errors.New("invalid content")

type Experience struct {
	Title   string   `yaml:"title" json:"title"`
	Company string   `yaml:"company" json:"company"`
	Period  string   `yaml:"period" json:"period"`
	Bullets []string `yaml:"bullets" json:"bullets"`
}

type Education struct {
	Degree      string   `yaml:"degree" json:"degree"`
	Institution string   `yaml:"institution" json:"institution"`
	Period      string   `yaml:"period" json:"period,omitempty"`
	Bullets     []string `yaml:"bullets" json:"bullets"`
}

// Certification has an optional expiry and verification link.
type Certification struct {
	Name   string `yaml:"name" json:"name"`
	Issuer string `yaml:"issuer" json:"issuer"`
	Issued string `yaml:"issued" json:"issued"`
	Expiry string `yaml:"expiry" json:"expiry,omitempty"`
	URL    string `yaml:"url" json:"url,omitempty"`
}

type SkillCategory struct {
	Title  string   `yaml:"title" json:"title"`
	Skills []string `yaml:"skills" json:"skills"`
}

type Project struct {
	Title   string   `yaml:"title" json:"title"`
	Summary string   `yaml:"summary" json:"summary"`
	Details []string `yaml:"details" json:"details"`
	Stack   []string `yaml:"stack" json:"stack"`
	Outcome string   `yaml:"outcome" json:"outcome"`
	GitHub  string   `yaml:"github" json:"github,omitempty"`
}

// Site is everything the page renders besides the assistant.
type Site struct {
	About          string          `yaml:"about" json:"about"`
	Experience     []Experience    `yaml:"experience" json:"experience"`
	Education      []Education     `yaml:"education" json:"education"`
	Certifications []Certification `yaml:"certifications" json:"certifications"`
	Skills         []SkillCategory `yaml:"skills" json:"skills"`
	Projects       []Project       `yaml:"projects" json:"projects"`
}

// Default returns the built-in content.
func Default() (*Site, error) {
	return Parse(defaultContent)
}

// Load reads a content file. An empty path means the built-in content.
func Load(path string) (*Site, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	for i, e := range site.Experience {
		if e.Title == "" || e.Company == "" {
			return nil, fmt.Errorf("%w: experience %d needs a title and company", ErrInvalidContent, i)
		}
	}
	for i, c := range site.Certifications {
		if c.Name == "" || c.Issuer == "" {
			return nil, fmt.Errorf("%w: certification %d needs a name and issuer", ErrInvalidContent, i)
		}
	}
	for i, p := range site.Projects {
		if p.Title == "" {
			return nil, fmt.Errorf("%w: project %d has no title", ErrInvalidContent, i)
		}
	}
	return &site, nil
}
