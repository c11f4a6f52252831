// Package connectivity tells the field agent whether the server is reachable.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

var _ ports.Connectivity = (*Probe)(nil)

// Probe polls a health URL and fans out online/offline transitions to subscribers.
type Probe struct {
	url      string
	client   *http.Client
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int
}

func NewProbe(url string, interval time.Duration, log *zap.Logger) *Probe {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Probe{
		url:      url,
		client:   &http.Client{Timeout: 5 * time.Second},
		interval: interval,
		log:      log,
		subs:     make(map[int]chan bool),
	}
}

func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe returns a channel of transitions. Slow subscribers miss
// transitions rather than block the probe.
func (p *Probe) Subscribe() (<-chan bool, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan bool, 1)
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}
}

// Check probes once and records the result.
func (p *Probe) Check(ctx context.Context) bool {
	online := p.reachable(ctx)
	p.set(online)
	return online
}

// Run checks immediately and then every interval until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

func (p *Probe) reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (p *Probe) set(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.online == online {
		return
	}
	p.online = online
	p.log.Info("connectivity changed", zap.Bool("online", online))

	for _, ch := range p.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
