package trace

import (
	"encoding/json"
	"fmt"
)

// Format selects the event rendering.
type Format uint8

const (
	// FormatText is a human-readable line per event.
	FormatText Format = iota
	// FormatNDJSON is newline-delimited JSON.
	FormatNDJSON
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid trace format: %q (expected: text|ndjson)", s)
	}
}

type jsonEvent struct {
	Seq    uint64 `json:"seq"`
	Time   string `json:"time"`
	Kind   string `json:"kind"`
	Scope  string `json:"scope"`
	Span   uint64 `json:"span"`
	Parent uint64 `json:"parent,omitempty"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// FormatEvent renders one event, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		data, err := json.Marshal(jsonEvent{
			Seq:    ev.Seq,
			Time:   ev.Time.Format("15:04:05.000000"),
			Kind:   ev.Kind.String(),
			Scope:  ev.Scope.String(),
			Span:   ev.SpanID,
			Parent: ev.ParentID,
			Name:   ev.Name,
			Detail: ev.Detail,
		})
		if err != nil {
			return nil
		}
		return append(data, '\n')
	}

	line := fmt.Sprintf("%06d %s %-5s %-6s %s",
		ev.Seq, ev.Time.Format("15:04:05.000000"), ev.Kind, ev.Scope, ev.Name)
	if ev.Detail != "" {
		line += " (" + ev.Detail + ")"
	}
	return []byte(line + "\n")
}
