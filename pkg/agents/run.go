package agents

import (
	"context"
	"fmt"
	"time"
)

func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	body := map[string]string{"assistant_id": agentID}
	var run Run
	if err := c.openai.Post(ctx, threadPath(threadID, "runs"), body, &run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &run, nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.openai.Get(ctx, threadPath(threadID, "runs", runID), nil, &run); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.openai.Post(ctx, threadPath(threadID, "runs", runID, "cancel"), nil, &run); err != nil {
		return nil, fmt.Errorf("cancel run %s: %w", runID, err)
	}
	return &run, nil
}

// CreateAndProcessRun starts a run and blocks until it reaches a terminal
// status. Runs asking for tool outputs are cancelled: every tool this client
// attaches executes on the service side.
func (c *Client) CreateAndProcessRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	run, err := c.CreateRun(ctx, threadID, agentID)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	cancelled := false
	for !run.Status.Terminal() {
		select {
		case <-ctx.Done():
			return run, fmt.Errorf("wait for run %s: %w", run.ID, ctx.Err())
		case <-ticker.C:
		}

		if run, err = c.GetRun(ctx, threadID, run.ID); err != nil {
			return nil, err
		}
		c.logger.Debug().Str("run", run.ID).Str("status", string(run.Status)).Msg("polled run")

		if run.Status == RunStatusRequiresAction && !cancelled {
			c.logger.Warn().Str("run", run.ID).Msg("run requires local tool outputs, cancelling")
			if run, err = c.CancelRun(ctx, threadID, run.ID); err != nil {
				return nil, err
			}
			cancelled = true
		}
	}
	return run, nil
}
