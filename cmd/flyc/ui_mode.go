package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the --ui flag: "auto", "on" or "off".
type uiMode string

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return "auto", nil
	case "auto", "on", "off":
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// shouldUseTUI reports whether to show the progress display. In auto mode
// it is shown for more than one unit on an interactive stderr.
func shouldUseTUI(mode uiMode, units int) bool {
	if mode == "auto" {
		return units > 1 && isTerminal(os.Stderr)
	}
	return mode == "on"
}
