package syncq

import (
	"context"
	"log"
	"sync"
	"time"

	"efuelpos/backend/internal/store"
)

// Pinger derives connectivity from periodic pings against the remote
// backend and publishes offline/online transitions on Changes. It is
// the NetworkStatus source used in production; tests inject their own.
type Pinger struct {
	mu       sync.RWMutex
	remote   store.Remote
	interval time.Duration
	online   bool
	changes  chan bool
}

func NewPinger(remote store.Remote, interval time.Duration) *Pinger {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Pinger{
		remote:   remote,
		interval: interval,
		online:   remote != nil,
		changes:  make(chan bool, 1),
	}
}

func (p *Pinger) Online() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

func (p *Pinger) Changes() <-chan bool {
	return p.changes
}

// Run polls until ctx is cancelled. Meant to be started once from main.
func (p *Pinger) Run(ctx context.Context) {
	if p.remote == nil {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Pinger) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	online := p.remote.Ping(pingCtx) == nil

	p.mu.Lock()
	changed := online != p.online
	p.online = online
	p.mu.Unlock()

	if !changed {
		return
	}
	if online {
		log.Printf("[sync] backend reachable")
	} else {
		log.Printf("[sync] backend unreachable, queueing writes")
	}

	select {
	case p.changes <- online:
	default:
	}
}
