package transport

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/tarm/serial"
)

// DefaultBaud matches the controller firmware.
const DefaultBaud = 9600

// SerialConfig selects the serial port.
type SerialConfig struct {
	Port string
	Baud int
}

// Serial is a Transport over a serial port. A background goroutine splits
// incoming bytes into lines and queues them for ReadLine.
type Serial struct {
	name  string
	port  io.ReadWriteCloser
	out   *bufio.Writer
	queue lineQueue

	mu   sync.Mutex
	open bool
	done chan struct{}
}

// OpenSerial opens the configured port and starts reading from it.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("no serial port configured")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Port,
		Baud: cfg.Baud,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	return newSerial(cfg.Port, port), nil
}

// newSerial wraps an already open stream.
func newSerial(name string, port io.ReadWriteCloser) *Serial {
	s := &Serial{
		name: name,
		port: port,
		out:  bufio.NewWriter(port),
		open: true,
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Serial) readLoop() {
	defer close(s.done)

	r := bufio.NewReader(s.port)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			s.queue.push(line)
		}
		if err != nil {
			if err != io.EOF && s.IsOpen() {
				log.Printf("serial %s: read error: %v", s.name, err)
			}
			s.markClosed()
			return
		}
	}
}

func (s *Serial) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// IsOpen reports whether the port is still usable.
func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// WriteLine writes a line, appending a newline when missing. Errors are
// logged and the line is dropped.
func (s *Serial) WriteLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := s.out.WriteString(line); err != nil {
		log.Printf("serial %s: write error: %v", s.name, err)
		return
	}
	if err := s.out.Flush(); err != nil {
		log.Printf("serial %s: flush error: %v", s.name, err)
	}
}

// ReadLine returns the oldest queued line, if any.
func (s *Serial) ReadLine() (string, bool) {
	return s.queue.pop()
}

// Available returns the number of queued lines.
func (s *Serial) Available() int {
	return s.queue.len()
}

// Close closes the port and waits for the reader to stop.
func (s *Serial) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.open = false
	s.mu.Unlock()

	err := s.port.Close()
	<-s.done
	return err
}
