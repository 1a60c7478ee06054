package tray

import "fmt"

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Gestures enabled"
	}
	return "○ Gestures disabled"
}

func lastGestureTitle(name string) string {
	if name == "" || name == "none" {
		return "Last: none"
	}
	return "Last: " + name
}

func modeTitle(mode string) string {
	if mode == "" {
		mode = "unknown"
	}
	return "Mode: " + mode
}

func timingTitle(red, yellow, green int) string {
	return fmt.Sprintf("Timing: %d / %d / %d ms", red, yellow, green)
}
