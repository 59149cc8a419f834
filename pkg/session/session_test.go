package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
)

type fakeAgents struct {
	run        agents.Run
	failOn     string
	calls      []string
	closed     int
	agentInput agents.AgentParams
	question   string
}

func (f *fakeAgents) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeAgents) CreateAgent(_ context.Context, params agents.AgentParams) (*agents.Agent, error) {
	f.agentInput = params
	if err := f.record("CreateAgent"); err != nil {
		return nil, err
	}
	return &agents.Agent{ID: "asst_1", Name: params.Name, Model: params.Model}, nil
}

func (f *fakeAgents) DeleteAgent(_ context.Context, agentID string) error {
	return f.record("DeleteAgent")
}

func (f *fakeAgents) CreateThread(context.Context) (*agents.Thread, error) {
	if err := f.record("CreateThread"); err != nil {
		return nil, err
	}
	return &agents.Thread{ID: "thread_1"}, nil
}

func (f *fakeAgents) CreateMessage(_ context.Context, threadID, role, content string) (*agents.Message, error) {
	f.question = content
	if err := f.record("CreateMessage"); err != nil {
		return nil, err
	}
	return &agents.Message{ID: "msg_1", ThreadID: threadID, Role: role, Text: content}, nil
}

func (f *fakeAgents) ListMessages(context.Context, string) ([]agents.Message, error) {
	if err := f.record("ListMessages"); err != nil {
		return nil, err
	}
	return []agents.Message{
		{ID: "msg_2", Role: "assistant", Text: "e^(i*pi) + 1 = 0", Citations: []agents.Citation{
			{Title: "Euler's identity", URL: "https://en.wikipedia.org/wiki/Euler%27s_identity"},
		}},
		{ID: "msg_1", Role: "user", Text: "How does wikipedia explain Euler's Identity?"},
	}, nil
}

func (f *fakeAgents) CreateAndProcessRun(context.Context, string, string) (*agents.Run, error) {
	if err := f.record("CreateAndProcessRun"); err != nil {
		return nil, err
	}
	run := f.run
	return &run, nil
}

func (f *fakeAgents) ListRunSteps(context.Context, string, string) ([]agents.RunStep, error) {
	if err := f.record("ListRunSteps"); err != nil {
		return nil, err
	}
	return []agents.RunStep{
		{ID: "step_1", Status: "completed", ToolCalls: []agents.ToolCall{{ID: "call_1", Type: "bing_grounding"}}},
		{ID: "step_2", Status: "completed"},
	}, nil
}

func (f *fakeAgents) Close() error {
	f.closed++
	return nil
}

func defaultOptions() Options {
	return Options{
		Model:        "gpt-4o",
		AgentName:    "bigsearch-agent",
		Instructions: "cite sources",
		Tools:        []agents.ToolDefinition{{"type": "bing_grounding"}},
		Question:     "How does wikipedia explain Euler's Identity?",
	}
}

func TestRun_Completed(t *testing.T) {
	f := &fakeAgents{run: agents.Run{ID: "run_1", Status: agents.RunStatusCompleted}}
	var out bytes.Buffer

	res, err := Run(context.Background(), f, defaultOptions(), &out, zerolog.Nop())
	require.NoError(t, err)

	want := `Created agent, ID: asst_1
Created thread, ID: thread_1
Created message, ID: msg_1
Run finished with status: completed
Messages:
 - assistant: e^(i*pi) + 1 = 0
   [1] Euler's identity (https://en.wikipedia.org/wiki/Euler%27s_identity)
 - user: How does wikipedia explain Euler's Identity?

Run steps:
 Step step_1 status: completed
   tool call: bing_grounding
 Step step_2 status: completed
Deleted agent
`
	assert.Equal(t, want, out.String())
	assert.Equal(t, 1, f.closed)
	assert.True(t, res.Deleted)
	assert.Equal(t, "gpt-4o", f.agentInput.Model)
	assert.Equal(t, "bigsearch-agent", f.agentInput.Name)
	assert.Len(t, f.agentInput.Tools, 1)
	assert.Equal(t, "How does wikipedia explain Euler's Identity?", f.question)
	assert.Len(t, res.Messages, 2)
	assert.Len(t, res.Steps, 2)
}

func TestRun_FailedRunStillListsAndDeletes(t *testing.T) {
	f := &fakeAgents{run: agents.Run{
		ID:        "run_1",
		Status:    agents.RunStatusFailed,
		LastError: &agents.RunError{Code: "server_error", Message: "bing connection unavailable"},
	}}
	var out bytes.Buffer

	_, err := Run(context.Background(), f, defaultOptions(), &out, zerolog.Nop())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Run finished with status: failed\nRun failed: server_error: bing connection unavailable\n")
	assert.Equal(t, []string{
		"CreateAgent", "CreateThread", "CreateMessage", "CreateAndProcessRun",
		"ListMessages", "ListRunSteps", "DeleteAgent",
	}, f.calls)
	assert.True(t, strings.HasSuffix(out.String(), "Deleted agent\n"))
}

func TestRun_KeepAgent(t *testing.T) {
	for _, status := range []agents.RunStatus{agents.RunStatusCompleted, agents.RunStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			f := &fakeAgents{run: agents.Run{ID: "run_1", Status: status}}
			opts := defaultOptions()
			opts.KeepAgent = true
			var out bytes.Buffer

			res, err := Run(context.Background(), f, opts, &out, zerolog.Nop())
			require.NoError(t, err)

			assert.NotContains(t, out.String(), "Deleted agent")
			assert.NotContains(t, f.calls, "DeleteAgent")
			assert.False(t, res.Deleted)
			assert.Equal(t, 1, f.closed)
		})
	}
}

func TestRun_RemoteErrorStopsSessionAndCloses(t *testing.T) {
	for _, step := range []string{"CreateAgent", "CreateThread", "CreateMessage", "CreateAndProcessRun", "ListMessages", "ListRunSteps", "DeleteAgent"} {
		t.Run(step, func(t *testing.T) {
			f := &fakeAgents{run: agents.Run{ID: "run_1", Status: agents.RunStatusCompleted}, failOn: step}
			var out bytes.Buffer

			res, err := Run(context.Background(), f, defaultOptions(), &out, zerolog.Nop())
			require.Error(t, err)

			assert.Contains(t, err.Error(), step)
			assert.Equal(t, err.Error(), res.Error)
			assert.Equal(t, step, f.calls[len(f.calls)-1], "nothing runs after the failing call")
			assert.Equal(t, 1, f.closed)
			assert.NotContains(t, out.String(), "Deleted agent")
		})
	}
}

func TestPrinterReplay(t *testing.T) {
	res := &Result{
		Stage:   StageStepsListed,
		Agent:   agents.Agent{ID: "asst_1"},
		Thread:  agents.Thread{ID: "thread_1"},
		Message: agents.Message{ID: "msg_1"},
		Run:     agents.Run{ID: "run_1", Status: agents.RunStatusFailed},
		Messages: []agents.Message{
			{Role: "assistant", Text: "answer", Citations: []agents.Citation{{URL: "https://example.com"}}},
		},
		Steps:   []agents.RunStep{{ID: "step_1", Status: "failed"}},
		Deleted: false,
	}
	var out bytes.Buffer
	(&Printer{W: &out}).Replay(res)

	assert.Equal(t, `Created agent, ID: asst_1
Created thread, ID: thread_1
Created message, ID: msg_1
Run finished with status: failed
Run failed: <none>
Messages:
 - assistant: answer
   [1] https://example.com (https://example.com)

Run steps:
 Step step_1 status: failed
`, out.String())
}

func TestRun_PartialResultReplaysLiveOutput(t *testing.T) {
	tests := []struct {
		failOn string
		stage  Stage
	}{
		{failOn: "CreateAgent", stage: StageStarted},
		{failOn: "CreateThread", stage: StageAgentCreated},
		{failOn: "CreateMessage", stage: StageThreadCreated},
		{failOn: "CreateAndProcessRun", stage: StageMessageCreated},
		{failOn: "ListMessages", stage: StageRunFinished},
		{failOn: "ListRunSteps", stage: StageMessagesListed},
		{failOn: "DeleteAgent", stage: StageStepsListed},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			f := &fakeAgents{run: agents.Run{ID: "run_1", Status: agents.RunStatusCompleted}, failOn: tt.failOn}
			var live bytes.Buffer

			res, err := Run(context.Background(), f, defaultOptions(), &live, zerolog.Nop())
			require.Error(t, err)
			assert.Equal(t, tt.stage, res.Stage)

			var replay bytes.Buffer
			(&Printer{W: &replay}).Replay(res)
			assert.Equal(t, live.String(), replay.String())
		})
	}
}

func TestRun_WarnsAboutLeftoverAgent(t *testing.T) {
	t.Run("after agent creation", func(t *testing.T) {
		var logs bytes.Buffer
		f := &fakeAgents{run: agents.Run{ID: "run_1", Status: agents.RunStatusCompleted}, failOn: "CreateThread"}

		_, err := Run(context.Background(), f, defaultOptions(), &bytes.Buffer{}, zerolog.New(&logs))
		require.Error(t, err)

		assert.Contains(t, logs.String(), `"level":"warn"`)
		assert.Contains(t, logs.String(), `"agent":"asst_1"`)
	})

	t.Run("before agent creation", func(t *testing.T) {
		var logs bytes.Buffer
		f := &fakeAgents{failOn: "CreateAgent"}

		_, err := Run(context.Background(), f, defaultOptions(), &bytes.Buffer{}, zerolog.New(&logs))
		require.Error(t, err)

		assert.NotContains(t, logs.String(), "agent was not deleted")
	})

	t.Run("agent kept on purpose", func(t *testing.T) {
		var logs bytes.Buffer
		f := &fakeAgents{run: agents.Run{ID: "run_1", Status: agents.RunStatusCompleted}, failOn: "ListMessages"}
		opts := defaultOptions()
		opts.KeepAgent = true

		_, err := Run(context.Background(), f, opts, &bytes.Buffer{}, zerolog.New(&logs))
		require.Error(t, err)

		assert.NotContains(t, logs.String(), "agent was not deleted")
	})
}

func TestParseStage(t *testing.T) {
	for s := StageStarted; s <= StageStepsListed; s++ {
		got, err := ParseStage(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStage("halfway")
	assert.Error(t, err)
}
