// Package logger is a standardized event logging framework for the
// sandbox shell. Every command dispatch, unknown name, and rejected
// input becomes one JSON object on its own line so logs can be
// streamed, grepped, and replayed.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// EventType discriminates log entries.
type EventType string

const (
	// EventRunCommand records a command dispatched to the registry.
	EventRunCommand EventType = "run_command"
	// EventUnknownCommand records a name that resolved to nothing.
	EventUnknownCommand EventType = "unknown_command"
	// EventParseError records input the grammar rejected.
	EventParseError EventType = "parse_error"
	// EventSessionStart records a new interactive or -c session.
	EventSessionStart EventType = "session_start"
)

// LogEntry is one logged event.
type LogEntry struct {
	TimestampMicros int64     `json:"timestamp_micros"`
	SessionID       string    `json:"session_id,omitempty"`
	Event           EventType `json:"event"`

	Command  []string `json:"command,omitempty"`
	ExitCode int      `json:"exit_code,omitempty"`
	Input    string   `json:"input,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// LogRecorder is a callback that stores events in an external
// datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures shell events.
type Logger struct {
	Record LogRecorder
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in
// newline delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewSession creates a logger with an attached session ID.
func (l *Logger) NewSession(sessionID string) *SessionLogger {
	return &SessionLogger{logger: l, sessionID: sessionID}
}

// SessionLogger logs events with a shared session ID. A nil
// SessionLogger swallows events, so callers never need a guard.
type SessionLogger struct {
	logger    *Logger
	sessionID string
}

func (l *SessionLogger) record(entry *LogEntry) error {
	if l == nil || l.logger == nil || l.logger.Record == nil {
		return nil
	}
	entry.TimestampMicros = time.Now().UnixMicro()
	entry.SessionID = l.sessionID
	return l.logger.Record(entry)
}

// SessionStart logs the beginning of a session.
func (l *SessionLogger) SessionStart() error {
	return l.record(&LogEntry{Event: EventSessionStart})
}

// CommandRun logs one dispatched registry command and its exit code.
func (l *SessionLogger) CommandRun(name string, args []string, code int) error {
	return l.record(&LogEntry{
		Event:    EventRunCommand,
		Command:  append([]string{name}, args...),
		ExitCode: code,
	})
}

// UnknownCommand logs a name that resolved to nothing.
func (l *SessionLogger) UnknownCommand(name string, args []string) error {
	return l.record(&LogEntry{
		Event:   EventUnknownCommand,
		Command: append([]string{name}, args...),
	})
}

// ParseError logs input the grammar rejected.
func (l *SessionLogger) ParseError(input string, err error) error {
	return l.record(&LogEntry{
		Event: EventParseError,
		Input: input,
		Error: err.Error(),
	})
}
