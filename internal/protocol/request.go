package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldQuery is the outbound field carrying the user's free-text query.
const FieldQuery = "query"

var (
	ErrEmptyQuery    = errors.New("query is required")
	ErrReservedField = errors.New("model field name is reserved")
)

// Request is one outbound frame: the query plus the model selected for
// every configured model field (for example planner_model -> llama3).
type Request struct {
	Query  string
	Models map[string]string
}

func NewRequest(query string, models map[string]string) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, ErrEmptyQuery
	}
	sel := make(map[string]string, len(models))
	for field, model := range models {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		if name == FieldQuery {
			return Request{}, fmt.Errorf("%w: %q", ErrReservedField, name)
		}
		sel[name] = model
	}
	return Request{Query: q, Models: sel}, nil
}

// Marshal encodes the request as a flat JSON object:
// {"query": "...", "<field>": "<model>", ...}.
func (r Request) Marshal() ([]byte, error) {
	if strings.TrimSpace(r.Query) == "" {
		return nil, ErrEmptyQuery
	}
	obj := make(map[string]string, len(r.Models)+1)
	for field, model := range r.Models {
		if field == FieldQuery {
			return nil, fmt.Errorf("%w: %q", ErrReservedField, field)
		}
		obj[field] = model
	}
	obj[FieldQuery] = r.Query
	return json.Marshal(obj)
}

// ParseRequest is the inverse of Marshal. Non-string fields are rejected.
func ParseRequest(data []byte) (Request, error) {
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return Request{}, fmt.Errorf("parse request: %w", err)
	}
	q, ok := obj[FieldQuery]
	if !ok || strings.TrimSpace(q) == "" {
		return Request{}, ErrEmptyQuery
	}
	delete(obj, FieldQuery)
	return Request{Query: q, Models: obj}, nil
}
