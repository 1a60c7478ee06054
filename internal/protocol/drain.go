package protocol

import "strings"

// MaxLinesPerTick bounds how many inbound lines are decoded per tick.
const MaxLinesPerTick = 10

// LineSource is the read side of a transport.
type LineSource interface {
	Available() int
	ReadLine() (string, bool)
}

// Drain reads up to max lines from src and passes each non-empty, trimmed
// line to fn. Lines beyond max stay queued in src. Empty lines count
// toward max. It returns the number of lines read.
func Drain(src LineSource, max int, fn func(line string)) int {
	n := 0
	for n < max && src.Available() > 0 {
		line, ok := src.ReadLine()
		if !ok {
			break
		}
		n++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fn(line)
	}
	return n
}
