// Package assistant implements the portfolio's canned-response assistant:
// an ordered keyword rule table, the responder that evaluates it, and the
// per-visitor conversation sessions that deliver its replies.
package assistant

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topics of the built-in rule table.
const (
	TopicExperience  = "experience"
	TopicDataScience = "data-science"
	TopicWeb         = "web"
	TopicProject     = "project"
	TopicSkills      = "skills"
	TopicEducation   = "education"
	TopicContact     = "contact"
	TopicDefault     = "default"
)

// ErrInvalidRules is returned when a rule file cannot be used as a rule table.
var ErrInvalidRules = errors.New("invalid rule table")

// Rule pairs a keyword predicate with a canned response. A rule matches a
// normalized query when any of its keywords is a substring of it.
type Rule struct {
	Topic    string   `yaml:"topic" json:"topic"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Response string   `yaml:"response" json:"response"`
}

// Matches reports whether the rule applies to an already lowercased query.
func (r Rule) Matches(normalized string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in table. Order is precedence.
func DefaultRules() []Rule {
	return []Rule{
		{Topic: TopicExperience, Keywords: []string{"experience", "work"}, Response: ExperienceResponse},
		{Topic: TopicDataScience, Keywords: []string{"data science", "machine learning", "ml"}, Response: DataScienceResponse},
		{Topic: TopicWeb, Keywords: []string{"web", "react", "full-stack"}, Response: WebResponse},
		{Topic: TopicProject, Keywords: []string{"project"}, Response: ProjectResponse},
		{Topic: TopicSkills, Keywords: []string{"language", "programming", "python", "skill"}, Response: SkillsResponse},
		{Topic: TopicEducation, Keywords: []string{"education", "degree"}, Response: EducationResponse},
		{Topic: TopicContact, Keywords: []string{"contact", "email", "reach"}, Response: ContactResponse},
	}
}

// ruleFile is the on-disk shape of a rule override.
type ruleFile struct {
	Fallback string `yaml:"fallback"`
	Rules    []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table. An empty fallback in the file keeps
// DefaultResponse.
func LoadRules(path string) ([]Rule, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) ([]Rule, string, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if len(rf.Rules) == 0 {
		return nil, "", fmt.Errorf("%w: no rules defined", ErrInvalidRules)
	}

	rules := make([]Rule, 0, len(rf.Rules))
	for i, r := range rf.Rules {
		if strings.TrimSpace(r.Response) == "" {
			return nil, "", fmt.Errorf("%w: rule %d has an empty response", ErrInvalidRules, i)
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			// Queries are lowercased before matching, so keywords must be too.
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return nil, "", fmt.Errorf("%w: rule %d has no keywords", ErrInvalidRules, i)
		}
		if r.Topic == "" {
			r.Topic = fmt.Sprintf("rule-%d", i)
		}
		r.Keywords = keywords
		rules = append(rules, r)
	}

	fallback := rf.Fallback
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultResponse
	}
	return rules, fallback, nil
}
