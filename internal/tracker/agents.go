package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
)

// agentListURL serves a maintained list of current browser user agents.
const agentListURL = "https://jnrbsn.github.io/user-agents/user-agents.json"

// FallbackUserAgent is used when no browser agent list is available.
const FallbackUserAgent = "curl/7.54.0"

// AgentPool hands out user agent strings for scraping requests.
type AgentPool struct {
	mu     sync.Mutex
	agents []string
}

// NewAgentPool creates a pool over the given agents. An empty pool
// falls back to FallbackUserAgent.
func NewAgentPool(agents []string) *AgentPool {
	return &AgentPool{agents: agents}
}

// Pick returns a random agent from the pool.
func (p *AgentPool) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.agents) == 0 {
		return FallbackUserAgent
	}
	return p.agents[rand.Intn(len(p.agents))]
}

// FetchAgentPool downloads the published user agent list, keeping only
// desktop agents that tracking sites accept. Linux X11 agents are
// filtered out because the sites serve them challenge pages.
func FetchAgentPool(ctx context.Context, client *http.Client, listURL string) (*AgentPool, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if listURL == "" {
		listURL = agentListURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch agent list: status %d", resp.StatusCode)
	}

	var all []string
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode agent list: %w", err)
	}

	agents := make([]string, 0, len(all))
	for _, a := range all {
		if strings.Contains(a, "X11;") {
			continue
		}
		agents = append(agents, a)
	}
	return NewAgentPool(agents), nil
}
