package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

func readColorMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return os.Getenv("NO_COLOR") == "" && isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// applyColorMode resolves the persistent --color flag and synchronizes
// the global color switch so every styled print agrees.
func applyColorMode(value string) (bool, error) {
	colored, err := readColorMode(value)
	if err != nil {
		return false, err
	}
	color.NoColor = !colored
	return colored, nil
}
