package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	for _, env := range []string{"local", "production"} {
		log, err := New("warn", env)
		if err != nil {
			t.Fatalf("New(%q): %v", env, err)
		}
		if log.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s logger should not log info at warn level", env)
		}
		if !log.Core().Enabled(zapcore.ErrorLevel) {
			t.Fatalf("%s logger should log errors", env)
		}
	}
}
