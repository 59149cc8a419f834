package session

import (
	"fmt"
	"io"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
)

// Printer writes the transcript lines of a session.
type Printer struct {
	W io.Writer
}

func (p *Printer) AgentCreated(id string) { fmt.Fprintf(p.W, "Created agent, ID: %s\n", id) }
func (p *Printer) ThreadCreated(id string) { fmt.Fprintf(p.W, "Created thread, ID: %s\n", id) }
func (p *Printer) MessageCreated(id string) { fmt.Fprintf(p.W, "Created message, ID: %s\n", id) }
func (p *Printer) AgentDeleted() { fmt.Fprintln(p.W, "Deleted agent") }

func (p *Printer) RunFinished(run *agents.Run) {
	fmt.Fprintf(p.W, "Run finished with status: %s\n", run.Status)
	if run.Status == agents.RunStatusFailed {
		fmt.Fprintf(p.W, "Run failed: %s\n", run.LastError)
	}
}

func (p *Printer) Messages(msgs []agents.Message) {
	fmt.Fprintln(p.W, "Messages:")
	for _, m := range msgs {
		fmt.Fprintf(p.W, " - %s: %s\n", m.Role, m.Text)
		for i, c := range m.Citations {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(p.W, "   [%d] %s (%s)\n", i+1, title, c.URL)
		}
	}
}

func (p *Printer) Steps(steps []agents.RunStep) {
	fmt.Fprintln(p.W, "\nRun steps:")
	for _, s := range steps {
		fmt.Fprintf(p.W, " Step %s status: %s\n", s.ID, s.Status)
		for _, tc := range s.ToolCalls {
			fmt.Fprintf(p.W, "   tool call: %s\n", tc.Type)
		}
	}
}

// Replay prints a stored result as the session printed it live, stopping
// at the stage the session reached.
func (p *Printer) Replay(res *Result) {
	if res.Stage >= StageAgentCreated {
		p.AgentCreated(res.Agent.ID)
	}
	if res.Stage >= StageThreadCreated {
		p.ThreadCreated(res.Thread.ID)
	}
	if res.Stage >= StageMessageCreated {
		p.MessageCreated(res.Message.ID)
	}
	if res.Stage >= StageRunFinished {
		p.RunFinished(&res.Run)
	}
	if res.Stage >= StageMessagesListed {
		p.Messages(res.Messages)
	}
	if res.Stage >= StageStepsListed {
		p.Steps(res.Steps)
	}
	if res.Deleted {
		p.AgentDeleted()
	}
}
