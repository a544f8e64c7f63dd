package testutil

import (
	"strings"
	"sync"

	"github.com/mcoot/numberguess/internal/model"
)

// RecordingPeer is an in-memory peer that records every message it is sent
type RecordingPeer struct {
	id model.PlayerID

	mu       sync.Mutex
	messages []string
	failing  bool
	closed   bool
	onSend   func(msg string)
}

// NewRecordingPeer creates a RecordingPeer with the given id
func NewRecordingPeer(id model.PlayerID) *RecordingPeer {
	return &RecordingPeer{id: id}
}

// ID returns the peer id
func (p *RecordingPeer) ID() model.PlayerID {
	return p.id
}

// Send records msg, or reports a drop once Fail has been called or the peer is closed.
// The OnSend hook runs after msg is recorded, outside the peer's lock.
func (p *RecordingPeer) Send(msg string) bool {
	p.mu.Lock()
	if p.failing || p.closed {
		p.mu.Unlock()
		return false
	}
	p.messages = append(p.messages, msg)
	hook := p.onSend
	p.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return true
}

// OnSend installs fn to run on every recorded message. fn may call back into the game.
func (p *RecordingPeer) OnSend(fn func(msg string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSend = fn
}

// Close marks the peer closed
func (p *RecordingPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Fail makes every following Send report a drop
func (p *RecordingPeer) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = true
}

// Closed reports whether Close has been called
func (p *RecordingPeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Messages returns a copy of the recorded messages
func (p *RecordingPeer) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	copy(out, p.messages)
	return out
}

// Lines returns the recorded messages split into wire lines
func (p *RecordingPeer) Lines() []string {
	var lines []string
	for _, msg := range p.Messages() {
		lines = append(lines, strings.Split(strings.TrimRight(msg, "\n"), "\n")...)
	}
	return lines
}

// HasLine reports whether any recorded line equals line
func (p *RecordingPeer) HasLine(line string) bool {
	for _, l := range p.Lines() {
		if l == line {
			return true
		}
	}
	return false
}

// Reset forgets the recorded messages
func (p *RecordingPeer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}
