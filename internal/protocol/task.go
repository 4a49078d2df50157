package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusRunning TaskStatus = "running"
	StatusDone    TaskStatus = "done"
	StatusError   TaskStatus = "error"
)

const unnamedTask = "Unnamed Task"

var (
	// ErrCorruptTaskUpdate means the task update payload is not JSON at all.
	ErrCorruptTaskUpdate = errors.New("corrupted task update")
	// ErrInvalidTaskData means the payload is JSON but not a task list.
	ErrInvalidTaskData = errors.New("invalid task data")
)

type Task struct {
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}

// ParseTasks decodes the JSON array carried by a task update line. Elements
// that are not objects, or that lack fields, fall back to an unnamed pending
// task rather than failing the whole update.
func ParseTasks(payload string) ([]Task, error) {
	raw := strings.TrimSpace(payload)
	if !json.Valid([]byte(raw)) {
		return nil, ErrCorruptTaskUpdate
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTaskUpdate, err)
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %s", ErrInvalidTaskData, jsonKind(decoded))
	}
	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, taskFromAny(item))
	}
	return tasks, nil
}

func taskFromAny(item any) Task {
	t := Task{Description: unnamedTask, Status: StatusPending}
	obj, ok := item.(map[string]any)
	if !ok {
		return t
	}
	switch d := obj["description"].(type) {
	case string:
		if d != "" {
			t.Description = d
		}
	case nil:
	default:
		t.Description = fmt.Sprint(d)
	}
	if s, ok := obj["status"].(string); ok && strings.TrimSpace(s) != "" {
		t.Status = TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	}
	return t
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
