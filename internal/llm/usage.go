package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	llmclient "catalognorm/internal/llm/client"
)

// UsageStat counts completion calls for one client.
type UsageStat struct {
	Client   string `json:"client"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
	Refusals int64  `json:"refusals"`
}

// UsageMeter keeps in-process call counters per client name.
type UsageMeter struct {
	mu    sync.Mutex
	stats map[string]*UsageStat
}

func NewUsageMeter() *UsageMeter {
	return &UsageMeter{stats: map[string]*UsageStat{}}
}

// Snapshot returns a copy of the counters sorted by client name.
func (m *UsageMeter) Snapshot() []UsageStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UsageStat, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

func (m *UsageMeter) record(client string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[client]
	if !ok {
		s = &UsageStat{Client: client}
		m.stats[client] = s
	}
	s.Requests++
	if err == nil {
		return
	}
	var refusal *llmclient.RefusalError
	if errors.As(err, &refusal) {
		s.Refusals++
		return
	}
	s.Errors++
}

// WithUsage records every call on meter.
func WithUsage(meter *UsageMeter) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if meter == nil {
			return next
		}
		return &metered{next: next, meter: meter}
	}
}

type metered struct {
	next  llmclient.LLMClient
	meter *UsageMeter
}

func (u *metered) Name() string { return u.next.Name() }
func (u *metered) Close() error { return u.next.Close() }

func (u *metered) GenerateJSON(ctx context.Context, req llmclient.Request) (json.RawMessage, error) {
	out, err := u.next.GenerateJSON(ctx, req)
	u.meter.record(u.next.Name(), err)
	return out, err
}
