package persistence

import (
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/session"
)

func NewTranscriptFromResult(res *session.Result) *Transcript {
	t := Transcript{
		Stage:    res.Stage.String(),
		Error:    res.Error,
		Agent:    Agent{ID: res.Agent.ID, Name: res.Agent.Name, Model: res.Agent.Model},
		ThreadID: res.Thread.ID,
		Question: NewMessageFromAgents(&res.Message),
		Run:      Run{ID: res.Run.ID, Status: string(res.Run.Status)},
		Deleted:  res.Deleted,
	}
	if e := res.Run.LastError; e != nil {
		t.Run.ErrorCode = e.Code
		t.Run.ErrorMessage = e.Message
	}

	for _, m := range res.Messages {
		t.Messages = append(t.Messages, NewMessageFromAgents(&m))
	}
	for _, s := range res.Steps {
		step := Step{ID: s.ID, Status: s.Status}
		for _, tc := range s.ToolCalls {
			step.ToolCalls = append(step.ToolCalls, tc.Type)
		}
		t.Steps = append(t.Steps, step)
	}

	return &t
}

func NewMessageFromAgents(m *agents.Message) Message {
	msg := Message{ID: m.ID, Role: m.Role, Content: m.Text}
	for _, c := range m.Citations {
		msg.Citations = append(msg.Citations, Citation{Title: c.Title, URL: c.URL})
	}
	return msg
}

func NewResultFromTranscript(t *Transcript) (*session.Result, error) {
	stage := session.StageStepsListed
	if t.Stage != "" {
		var err error
		if stage, err = session.ParseStage(t.Stage); err != nil {
			return nil, err
		}
	}

	res := session.Result{
		Stage:   stage,
		Error:   t.Error,
		Agent:   agents.Agent{ID: t.Agent.ID, Name: t.Agent.Name, Model: t.Agent.Model},
		Thread:  agents.Thread{ID: t.ThreadID},
		Message: NewMessageFromTranscript(&t.Question),
		Run:     agents.Run{ID: t.Run.ID, ThreadID: t.ThreadID, AgentID: t.Agent.ID, Status: agents.RunStatus(t.Run.Status)},
		Deleted: t.Deleted,
	}
	if t.Run.ErrorCode != "" || t.Run.ErrorMessage != "" {
		res.Run.LastError = &agents.RunError{Code: t.Run.ErrorCode, Message: t.Run.ErrorMessage}
	}

	for _, m := range t.Messages {
		res.Messages = append(res.Messages, NewMessageFromTranscript(&m))
	}
	for _, s := range t.Steps {
		step := agents.RunStep{ID: s.ID, RunID: t.Run.ID, Status: s.Status}
		for _, tc := range s.ToolCalls {
			step.ToolCalls = append(step.ToolCalls, agents.ToolCall{Type: tc})
		}
		res.Steps = append(res.Steps, step)
	}

	return &res, nil
}

func NewMessageFromTranscript(m *Message) agents.Message {
	msg := agents.Message{ID: m.ID, Role: m.Role, Text: m.Content}
	for _, c := range m.Citations {
		msg.Citations = append(msg.Citations, agents.Citation{Title: c.Title, URL: c.URL})
	}
	return msg
}
