package transport

import (
	"strings"
	"sync"

	"github.com/ayusman/signalhand/internal/protocol"
)

// Memory is an in-process transport. Lines written by the application are
// recorded, and lines fed by a test are returned by ReadLine.
type Memory struct {
	mu      sync.Mutex
	open    bool
	written []string
	queue   lineQueue
}

// NewMemory returns an open in-memory transport.
func NewMemory() *Memory {
	return &Memory{open: true}
}

// SetOpen opens or closes the transport.
func (m *Memory) SetOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = open
}

// IsOpen reports whether writes are accepted.
func (m *Memory) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// WriteLine records the line without its trailing newline.
func (m *Memory) WriteLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.written = append(m.written, strings.TrimSuffix(line, "\n"))
}

// Feed queues lines as if they had arrived from the controller.
func (m *Memory) Feed(lines ...string) {
	for _, l := range lines {
		m.queue.push(l)
	}
}

// ReadLine returns the oldest fed line.
func (m *Memory) ReadLine() (string, bool) {
	return m.queue.pop()
}

// Available returns the number of fed lines not yet read.
func (m *Memory) Available() int {
	return m.queue.len()
}

// Written returns a copy of every recorded line.
func (m *Memory) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}

// Commands decodes every recorded line. Lines that are not commands are
// reported in the error and skipped.
func (m *Memory) Commands() ([]protocol.Command, error) {
	var (
		cmds     []protocol.Command
		firstErr error
	)
	for _, line := range m.Written() {
		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, firstErr
}

// Reset forgets recorded lines.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = nil
}
