package logger

import (
	"encoding/json"
	"io"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}
		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int `json:"log_entries"`

	CommandNames        StrCounter `json:"command_names"`
	UnknownCommandNames StrCounter `json:"unknown_command_names"`
	ParseErrors         StrCounter `json:"parse_errors"`
	Sessions            StrCounter `json:"sessions"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch le.Event {
	case EventRunCommand:
		if len(le.Command) > 0 {
			r.CommandNames.Increment(le.Command[0])
		}
	case EventUnknownCommand:
		if len(le.Command) > 0 {
			r.UnknownCommandNames.Increment(le.Command[0])
		}
	case EventParseError:
		r.ParseErrors.Increment(le.Error)
	case EventSessionStart:
		r.Sessions.Increment(le.SessionID)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times a key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}
