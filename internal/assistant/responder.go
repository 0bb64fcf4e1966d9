package assistant

import "strings"

// Responder maps a query to exactly one canned response.
type Responder struct {
	rules    []Rule
	fallback string
}

// NewResponder creates a responder over a copy of rules. An empty fallback
// uses DefaultResponse.
func NewResponder(rules []Rule, fallback string) *Responder {
	if fallback == "" {
		fallback = DefaultResponse
	}
	return &Responder{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
	}
}

// DefaultResponder uses the built-in rule table.
func DefaultResponder() *Responder {
	return NewResponder(DefaultRules(), DefaultResponse)
}

// Match returns the first rule matching query.
func (r *Responder) Match(query string) (Rule, bool) {
	q := strings.ToLower(query)
	if q == "" {
		return Rule{}, false
	}
	for _, rule := range r.rules {
		if rule.Matches(q) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Respond returns the first matching rule's response, or the fallback.
func (r *Responder) Respond(query string) string {
	if rule, ok := r.Match(query); ok {
		return rule.Response
	}
	return r.fallback
}

// Topic returns the matched rule's topic, or TopicDefault.
func (r *Responder) Topic(query string) string {
	if rule, ok := r.Match(query); ok {
		return rule.Topic
	}
	return TopicDefault
}

// Rules returns a copy of the rule table in evaluation order.
func (r *Responder) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Fallback returns the response used when no rule matches.
func (r *Responder) Fallback() string {
	return r.fallback
}
