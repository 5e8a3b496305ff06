package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLinesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLinesLogRecorder(&buf).NewSession("1234")

	require.NoError(t, log.SessionStart())
	require.NoError(t, log.CommandRun("echo", []string{"hi"}, 0))
	require.NoError(t, log.UnknownCommand("frobnicate", nil))
	require.NoError(t, log.ParseError("if fi", errors.New("syntax error")))

	var got []LogEntry
	require.NoError(t, ReadJSONLinesLog(&buf, func(le *LogEntry) {
		got = append(got, *le)
	}))

	require.Len(t, got, 4)
	assert.Equal(t, EventSessionStart, got[0].Event)
	assert.Equal(t, "1234", got[0].SessionID)
	assert.Equal(t, []string{"echo", "hi"}, got[1].Command)
	assert.Equal(t, EventUnknownCommand, got[2].Event)
	assert.Equal(t, "syntax error", got[3].Error)
	for _, le := range got {
		assert.NotZero(t, le.TimestampMicros)
	}
}

func TestNilSessionLoggerIsSafe(t *testing.T) {
	var log *SessionLogger
	assert.NoError(t, log.SessionStart())
	assert.NoError(t, log.CommandRun("ls", nil, 0))
	assert.NoError(t, log.UnknownCommand("x", nil))
	assert.NoError(t, log.ParseError("(", errors.New("unbalanced")))
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLinesLogRecorder(&buf).NewSession("99")
	require.NoError(t, log.CommandRun("echo", nil, 0))
	require.NoError(t, log.CommandRun("echo", nil, 1))
	require.NoError(t, log.UnknownCommand("nmap", nil))

	var report Report
	require.NoError(t, ReadJSONLinesLog(strings.NewReader(buf.String()), report.Update))

	assert.Equal(t, 3, report.LogEntries)
	assert.Equal(t, 2, report.CommandNames.Count("echo"))
	assert.Equal(t, 1, report.UnknownCommandNames.Count("nmap"))
}
