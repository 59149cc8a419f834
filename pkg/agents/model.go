// Package agents is a client for the Azure AI Foundry agents REST API
package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// Terminal reports whether the service will not change the run any further.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusRequiresAction, RunStatusCancelling:
		return false
	}
	return true
}

// ToolDefinition is a tool object as the service expects it on an agent.
type ToolDefinition map[string]any

type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools"`
}

type AgentParams struct {
	Model        string           `json:"model"`
	Name         string           `json:"name,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

type Thread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Message is a thread entry with its content flattened to text.
type Message struct {
	ID        string
	ThreadID  string
	RunID     string
	Role      string
	Text      string
	Citations []Citation
	CreatedAt int64
}

// UnmarshalJSON accepts content either as a plain string or as a list of
// typed content parts.
func (m *Message) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid message json")
	}
	r := gjson.ParseBytes(data)
	*m = Message{
		ID:        r.Get("id").String(),
		ThreadID:  r.Get("thread_id").String(),
		RunID:     r.Get("run_id").String(),
		Role:      r.Get("role").String(),
		CreatedAt: r.Get("created_at").Int(),
	}

	content := r.Get("content")
	if !content.IsArray() {
		m.Text = content.String()
		return nil
	}

	var parts []string
	for _, part := range content.Array() {
		if part.Get("type").String() != "text" {
			continue
		}
		text := part.Get("text")
		if text.IsObject() {
			parts = append(parts, text.Get("value").String())
			for _, a := range text.Get("annotations").Array() {
				if a.Get("type").String() != "url_citation" {
					continue
				}
				m.Citations = append(m.Citations, Citation{
					Title: a.Get("url_citation.title").String(),
					URL:   a.Get("url_citation.url").String(),
				})
			}
		} else {
			parts = append(parts, text.String())
		}
	}
	m.Text = strings.Join(parts, "\n\n")
	return nil
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RunError) String() string {
	if e == nil {
		return "<none>"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	AgentID   string    `json:"assistant_id"`
	Status    RunStatus `json:"status"`
	LastError *RunError `json:"last_error"`
}

type ToolCall struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type RunStep struct {
	ID        string
	RunID     string
	Type      string
	Status    string
	ToolCalls []ToolCall
}

func (s *RunStep) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string `json:"id"`
		RunID       string `json:"run_id"`
		Type        string `json:"type"`
		Status      string `json:"status"`
		StepDetails struct {
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"step_details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = RunStep{
		ID:        raw.ID,
		RunID:     raw.RunID,
		Type:      raw.Type,
		Status:    raw.Status,
		ToolCalls: raw.StepDetails.ToolCalls,
	}
	return nil
}

type page[T any] struct {
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	LastID  string `json:"last_id"`
}

type deletion struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
