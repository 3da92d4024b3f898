// Package control implements the cooperative pause and stop signals
// observed by the collector. Pause is level-triggered and polled;
// stop is one-way.
package control

import (
	"os"
	"sync"
	"sync/atomic"
)

// PauseProvider answers whether collection should currently be paused.
// Implementations must be cheap: providers are polled at loop
// boundaries, never pushed.
type PauseProvider interface {
	Paused() bool
}

// FilePause pauses while a marker file exists. Operators touch the
// file to pause a running collector and remove it to resume, without
// talking to the API.
type FilePause struct {
	path string
}

// NewFilePause creates a file-presence pause provider.
func NewFilePause(path string) *FilePause {
	return &FilePause{path: path}
}

// Paused reports whether the marker file exists. Stat errors other
// than non-existence count as not paused.
func (f *FilePause) Paused() bool {
	if f.path == "" {
		return false
	}
	_, err := os.Stat(f.path)
	return err == nil
}

// ManualPause is an in-memory pause flag flipped by the control API.
type ManualPause struct {
	paused atomic.Bool
}

// NewManualPause creates an unpaused manual provider.
func NewManualPause() *ManualPause {
	return &ManualPause{}
}

// Paused reports the flag.
func (m *ManualPause) Paused() bool {
	return m.paused.Load()
}

// Set updates the flag.
func (m *ManualPause) Set(paused bool) {
	m.paused.Store(paused)
}

// Plane composes pause providers and carries the stop signal. The
// system is paused while any provider says so. Stop cannot be undone;
// a stopped collector is restarted by restarting the process.
type Plane struct {
	providers []PauseProvider

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPlane creates a control plane over the given pause providers.
func NewPlane(providers ...PauseProvider) *Plane {
	return &Plane{
		providers: providers,
		stopCh:    make(chan struct{}),
	}
}

// IsPaused reports whether any provider requests a pause.
func (p *Plane) IsPaused() bool {
	for _, pr := range p.providers {
		if pr.Paused() {
			return true
		}
	}
	return false
}

// RequestStop signals shutdown. Safe to call more than once.
func (p *Plane) RequestStop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// ShouldStop reports whether shutdown has been requested.
func (p *Plane) ShouldStop() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// Stopping returns a channel closed when shutdown is requested, for
// use in select loops.
func (p *Plane) Stopping() <-chan struct{} {
	return p.stopCh
}
