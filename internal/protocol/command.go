// Package protocol implements the line protocol spoken with the traffic-light controller.
//
// Outbound commands are single lines of the form
//
//	cmd:<key>=<value>;
//
// and inbound status reports are comma-separated key:value pairs such as
//
//	mode:normal,brightness:80,red:1,yellow:0,green:0
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayusman/signalhand/internal/timing"
)

// Key is an outbound command key.
type Key string

const (
	KeyRedTime    Key = "redTime"
	KeyYellowTime Key = "yellowTime"
	KeyGreenTime  Key = "greenTime"
	KeyApply      Key = "apply"
	KeyButton     Key = "button"
)

// Button is a virtual controller button.
type Button int

const (
	ButtonEmergency Button = 1
	ButtonBlink     Button = 2
	ButtonOnOff     Button = 3 // also cycles back to normal
)

const (
	commandPrefix = "cmd:"
	commandSuffix = ";"
)

// ErrMalformed is returned when a line does not follow the command grammar.
var ErrMalformed = errors.New("malformed command")

// Command is one outbound command.
type Command struct {
	Key   Key
	Value string
}

// Encode renders the command as a wire line, newline included.
func (c Command) Encode() string {
	return commandPrefix + string(c.Key) + "=" + c.Value + commandSuffix + "\n"
}

// String renders the command without the trailing newline.
func (c Command) String() string {
	return strings.TrimSuffix(c.Encode(), "\n")
}

// DurationKey returns the command key announcing a channel's duration.
func DurationKey(ch timing.Channel) Key {
	return Key(string(ch) + "Time")
}

// Duration announces a new duration for a channel.
func Duration(ch timing.Channel, ms int) Command {
	return Command{Key: DurationKey(ch), Value: strconv.Itoa(ms)}
}

// Apply asks the controller to apply the stored duration of the active phase.
func Apply(ch timing.Channel) Command {
	return Command{Key: KeyApply, Value: string(ch)}
}

// Press presses a virtual button.
func Press(b Button) Command {
	return Command{Key: KeyButton, Value: strconv.Itoa(int(b))}
}

// ParseCommand parses a wire line produced by Encode. Surrounding
// whitespace and the trailing newline are ignored.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, commandPrefix) || !strings.HasSuffix(line, commandSuffix) {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(line, commandPrefix), commandSuffix)

	key, value, ok := strings.Cut(body, "=")
	if !ok || key == "" || value == "" {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	c := Command{Key: Key(key), Value: value}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// Validate checks the value against the key's allowed range.
func (c Command) Validate() error {
	switch c.Key {
	case KeyRedTime, KeyYellowTime, KeyGreenTime:
		if _, err := strconv.Atoi(c.Value); err != nil {
			return fmt.Errorf("%w: %s value %q is not an integer", ErrMalformed, c.Key, c.Value)
		}
	case KeyApply:
		if _, err := timing.ParseChannel(c.Value); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case KeyButton:
		switch c.Value {
		case "1", "2", "3":
		default:
			return fmt.Errorf("%w: unknown button %q", ErrMalformed, c.Value)
		}
	default:
		return fmt.Errorf("%w: unknown key %q", ErrMalformed, c.Key)
	}
	return nil
}

// DurationChannel returns the channel and value of a duration command.
func (c Command) DurationChannel() (timing.Channel, int, bool) {
	for _, ch := range timing.Channels {
		if c.Key == DurationKey(ch) {
			v, err := strconv.Atoi(c.Value)
			if err != nil {
				return "", 0, false
			}
			return ch, v, true
		}
	}
	return "", 0, false
}
