// Package tooling provides the tool definitions attached to agents
package tooling

import (
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
)

const BingGroundingType = "bing_grounding"

// BingGrounding lets the agent search the web through a Bing resource
// connected to the project. Only ConnectionID is required.
type BingGrounding struct {
	ConnectionID string
	Market       string
	SetLang      string
	Count        int
	Freshness    string
}

func (b BingGrounding) Definitions() []agents.ToolDefinition {
	search := map[string]any{"connection_id": b.ConnectionID}
	if b.Market != "" {
		search["market"] = b.Market
	}
	if b.SetLang != "" {
		search["set_lang"] = b.SetLang
	}
	if b.Count > 0 {
		search["count"] = b.Count
	}
	if b.Freshness != "" {
		search["freshness"] = b.Freshness
	}

	return []agents.ToolDefinition{{
		"type": BingGroundingType,
		BingGroundingType: map[string]any{
			"search_configurations": []map[string]any{search},
		},
	}}
}
