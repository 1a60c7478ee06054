package protocol

import (
	"strconv"
	"strings"

	"github.com/ayusman/signalhand/internal/timing"
)

// DeviceState is the last status reported by the controller.
type DeviceState struct {
	Mode       string `json:"mode"`
	Brightness int    `json:"brightness"`
	Red        int    `json:"red"`
	Yellow     int    `json:"yellow"`
	Green      int    `json:"green"`
}

// ModeNormal is the mode in which the controller cycles through the phases.
const ModeNormal = "normal"

// DefaultDeviceState returns the state assumed before any report arrives.
func DefaultDeviceState() DeviceState {
	return DeviceState{Mode: "unknown"}
}

// LEDOn reports whether the channel's LED was last reported lit.
func (d DeviceState) LEDOn(ch timing.Channel) bool {
	switch ch {
	case timing.Red:
		return d.Red == 1
	case timing.Yellow:
		return d.Yellow == 1
	case timing.Green:
		return d.Green == 1
	}
	return false
}

// DecodeStatus applies a status line to d and returns how many fields it
// set. Unknown keys, pairs without a colon and unparsable values are
// skipped; fields not mentioned keep their previous values.
func DecodeStatus(line string, d *DeviceState) int {
	applied := 0
	for _, pair := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "mode":
			if value == "" {
				continue
			}
			d.Mode = value
		case "brightness":
			n, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			d.Brightness = n
		case "red", "yellow", "green":
			bit, ok := parseBit(value)
			if !ok {
				continue
			}
			switch key {
			case "red":
				d.Red = bit
			case "yellow":
				d.Yellow = bit
			default:
				d.Green = bit
			}
		default:
			continue
		}
		applied++
	}
	return applied
}

func parseBit(s string) (int, bool) {
	switch s {
	case "0":
		return 0, true
	case "1":
		return 1, true
	}
	return 0, false
}

// EncodeStatus renders d in the inbound status grammar.
func EncodeStatus(d DeviceState) string {
	return "mode:" + d.Mode +
		",brightness:" + strconv.Itoa(d.Brightness) +
		",red:" + strconv.Itoa(d.Red) +
		",yellow:" + strconv.Itoa(d.Yellow) +
		",green:" + strconv.Itoa(d.Green)
}
