package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	flags, out := log.Flags(), log.Writer()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	})
	fn()
	return buf.String()
}

func TestLoggerLevels(t *testing.T) {
	out := captureLog(t, func() {
		l := NewLogger(LogLevelWarn)
		l.Error("e")
		l.Warn("w")
		l.Info("i")
		l.Debug("d")
	})

	if !strings.Contains(out, "[ERROR] e") || !strings.Contains(out, "[WARN] w") {
		t.Errorf("Expected error and warn lines, got %q", out)
	}
	if strings.Contains(out, "[INFO]") || strings.Contains(out, "[DEBUG]") {
		t.Errorf("Expected info and debug to be filtered, got %q", out)
	}
}

func TestLoggerComponentTag(t *testing.T) {
	out := captureLog(t, func() {
		NewLogger(LogLevelInfo).With("BootstrapEngine").Info("pass %d", 1)
	})
	if strings.TrimSpace(out) != "[INFO] [BootstrapEngine] pass 1" {
		t.Errorf("Unexpected line %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in    string
		level LogLevel
		ok    bool
	}{
		{"ERROR", LogLevelError, true},
		{"debug", LogLevelDebug, true},
		{" trace ", LogLevelTrace, true},
		{"", LogLevelInfo, false},
		{"verbose", LogLevelInfo, false},
	}
	for _, tt := range tests {
		level, ok := ParseLogLevel(tt.in)
		if level != tt.level || ok != tt.ok {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v, %v", tt.in, level, ok, tt.level, tt.ok)
		}
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	out := captureLog(t, func() { l.Error("boom") })
	if out != "" {
		t.Errorf("Expected no output from nil logger, got %q", out)
	}
}
