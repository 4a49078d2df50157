package modelsapi

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultFields are the request fields the agent backend reads model names
// from.
var DefaultFields = []string{"planner_model", "browser_model", "code_model"}

// Selection maps each configured request field to the chosen model.
// Fields keep their configured order. A Selection is safe for concurrent
// use.
type Selection struct {
	fields []string

	mu     sync.RWMutex
	models map[string]string
}

// NewSelection selects preferred for every field when the catalog offers
// it, and the first catalog model otherwise.
func NewSelection(fields []string, cat Catalog, preferred string) *Selection {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	choice := ""
	if len(cat.Models) > 0 {
		choice = cat.Models[0]
	}
	preferred = strings.TrimSpace(preferred)
	for _, m := range cat.Models {
		if m == preferred {
			choice = m
			break
		}
	}
	s := &Selection{models: make(map[string]string, len(fields))}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := s.models[f]; dup {
			continue
		}
		s.fields = append(s.fields, f)
		s.models[f] = choice
	}
	return s
}

func (s *Selection) Fields() []string {
	return append([]string(nil), s.fields...)
}

func (s *Selection) Get(field string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models[field]
}

// Set changes one field. Unknown fields are rejected.
func (s *Selection) Set(field, model string) error {
	field = strings.TrimSpace(field)
	model = strings.TrimSpace(model)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[field]; !ok {
		return fmt.Errorf("unknown model field %q (have %s)", field, strings.Join(s.fields, ", "))
	}
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	s.models[field] = model
	return nil
}

// Map returns a copy suitable for protocol.NewRequest.
func (s *Selection) Map() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.models))
	for k, v := range s.models {
		out[k] = v
	}
	return out
}

// Label is the model shown next to the user's messages: the first field's
// selection.
func (s *Selection) Label() string {
	if len(s.fields) == 0 {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models[s.fields[0]]
}

func (s *Selection) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parts := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		parts = append(parts, f+"="+s.models[f])
	}
	return strings.Join(parts, " ")
}
