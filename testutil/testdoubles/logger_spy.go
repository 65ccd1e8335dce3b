package testdoubles

import (
	"sync"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy implements circulation.Logger and records every call.
type LoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

var _ circulation.Logger = (*LoggerSpy)(nil)

// NewLoggerSpy creates an empty logger spy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record("debug", msg, args) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record("info", msg, args) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record("warn", msg, args) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record("error", msg, args) }

func (s *LoggerSpy) record(level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args})
}

// Records returns a copy of all captured log calls.
func (s *LoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// RecordsWithLevel returns the captured calls of one level.
func (s *LoggerSpy) RecordsWithLevel(level string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []LogRecord

	for _, record := range s.records {
		if record.Level == level {
			matching = append(matching, record)
		}
	}

	return matching
}

// HasMessage reports whether any captured call used the given message.
func (s *LoggerSpy) HasMessage(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Message == msg {
			return true
		}
	}

	return false
}

// Reset discards all captured calls.
func (s *LoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
}
