package portal

import (
	"context"
	"sync"
	"time"
)

// APIStatus is the observed availability of the portal API.
type APIStatus string

const (
	APIChecking APIStatus = "Checking"
	APIOnline   APIStatus = "Online"
	APIOffline  APIStatus = "Offline"
)

// HealthPoller probes GET /health on a fixed interval, independent of any
// user action. A failed probe flips the status to Offline and polling
// continues.
type HealthPoller struct {
	client   *Client
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	status   APIStatus
	onChange func(APIStatus)
}

func NewHealthPoller(client *Client, interval time.Duration) *HealthPoller {
	if interval == 0 {
		interval = 10 * time.Second
	}
	return &HealthPoller{
		client:   client,
		interval: interval,
		stopCh:   make(chan struct{}),
		status:   APIChecking,
	}
}

// SetOnChange registers a callback invoked whenever the observed status
// changes. Must be called before Start.
func (p *HealthPoller) SetOnChange(fn func(APIStatus)) {
	p.onChange = fn
}

func (p *HealthPoller) Status() APIStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *HealthPoller) Start() {
	p.wg.Add(1)
	go p.run()
}

func (p *HealthPoller) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *HealthPoller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *HealthPoller) check() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	status := APIOnline
	if err := p.client.Health(ctx); err != nil {
		status = APIOffline
	}

	p.mu.Lock()
	changed := p.status != status
	p.status = status
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(status)
	}
}
