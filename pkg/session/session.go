// Package session drives one question through a grounded agent and prints
// what happened.
package session

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
)

// Collaborator is the part of the agents API a session needs.
type Collaborator interface {
	CreateAgent(ctx context.Context, params agents.AgentParams) (*agents.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateThread(ctx context.Context) (*agents.Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*agents.Message, error)
	ListMessages(ctx context.Context, threadID string) ([]agents.Message, error)
	CreateAndProcessRun(ctx context.Context, threadID, agentID string) (*agents.Run, error)
	ListRunSteps(ctx context.Context, threadID, runID string) ([]agents.RunStep, error)
	Close() error
}

type Options struct {
	Model        string
	AgentName    string
	Instructions string
	Tools        []agents.ToolDefinition
	Question     string
	KeepAgent    bool
}

// Stage is how far a session got. Each stage is also a transcript line
// group, so a partial Result replays exactly what was printed live.
type Stage int

const (
	StageStarted Stage = iota
	StageAgentCreated
	StageThreadCreated
	StageMessageCreated
	StageRunFinished
	StageMessagesListed
	StageStepsListed
)

var stageNames = []string{
	"started",
	"agent_created",
	"thread_created",
	"message_created",
	"run_finished",
	"messages_listed",
	"steps_listed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// ParseStage is the inverse of Stage.String.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown session stage %q", name)
}

// Result is a snapshot of everything a session created or read.
type Result struct {
	Stage    Stage
	Agent    agents.Agent
	Thread   agents.Thread
	Message  agents.Message
	Run      agents.Run
	Messages []agents.Message
	Steps    []agents.RunStep
	Deleted  bool
	// Error is the message of the error that ended the session early.
	Error    string
}

// Run executes the session and writes the transcript to out. The
// collaborator is closed on every path. A failed run is reported, not
// returned as an error; any remote error ends the session.
func Run(ctx context.Context, c Collaborator, opts Options, out io.Writer, logger zerolog.Logger) (res *Result, err error) {
	defer func() {
		if err != nil {
			res.Error = err.Error()
			if res.Stage >= StageAgentCreated && !res.Deleted && !opts.KeepAgent {
				logger.Warn().Str("agent", res.Agent.ID).Msg("session ended early, agent was not deleted")
			}
		}
		if cerr := c.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("closing agents client")
		}
	}()

	p := &Printer{W: out}
	res = &Result{}

	agent, err := c.CreateAgent(ctx, agents.AgentParams{
		Model:        opts.Model,
		Name:         opts.AgentName,
		Instructions: opts.Instructions,
		Tools:        opts.Tools,
	})
	if err != nil {
		return res, err
	}
	res.Agent = *agent
	res.Stage = StageAgentCreated
	p.AgentCreated(agent.ID)

	thread, err := c.CreateThread(ctx)
	if err != nil {
		return res, err
	}
	res.Thread = *thread
	res.Stage = StageThreadCreated
	p.ThreadCreated(thread.ID)

	msg, err := c.CreateMessage(ctx, thread.ID, "user", opts.Question)
	if err != nil {
		return res, err
	}
	res.Message = *msg
	res.Stage = StageMessageCreated
	p.MessageCreated(msg.ID)

	run, err := c.CreateAndProcessRun(ctx, thread.ID, agent.ID)
	if err != nil {
		return res, err
	}
	res.Run = *run
	res.Stage = StageRunFinished
	p.RunFinished(run)
	logger.Debug().Str("run", run.ID).Str("status", string(run.Status)).Msg("run finished")

	if res.Messages, err = c.ListMessages(ctx, thread.ID); err != nil {
		return res, err
	}
	res.Stage = StageMessagesListed
	p.Messages(res.Messages)

	if res.Steps, err = c.ListRunSteps(ctx, thread.ID, run.ID); err != nil {
		return res, err
	}
	res.Stage = StageStepsListed
	p.Steps(res.Steps)

	if opts.KeepAgent {
		logger.Info().Str("agent", agent.ID).Msg("keeping agent")
		return res, nil
	}
	if err = c.DeleteAgent(ctx, agent.ID); err != nil {
		return res, err
	}
	res.Deleted = true
	p.AgentDeleted()

	return res, nil
}
