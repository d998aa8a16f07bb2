package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput temporarily points the global logger at a buffer.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	f()

	defaultLogger = oldLogger
	return buf.String()
}

// decode returns the single JSON record in output.
func decode(t *testing.T, output string) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &rec); err != nil {
		t.Fatalf("failed to decode log record %q: %v", output, err)
	}
	return rec
}

func TestInitLoggerTo(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		format   Format
		logDebug bool
		wantJSON bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true},
		{"info json", LevelInfo, FormatJSON, false, true},
		{"warn text", LevelWarn, FormatText, false, false},
		{"invalid level", Level(999), FormatText, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)
			defer InitLogger(LevelInfo, FormatText)

			Debug("debug message")
			Error("error message", "key", "value")

			out := buf.String()
			if strings.Contains(out, "debug message") != tt.logDebug {
				t.Errorf("debug output present = %v, want %v: %s", !tt.logDebug, tt.logDebug, out)
			}
			if !strings.Contains(out, "error message") {
				t.Errorf("error output missing: %s", out)
			}
			if strings.HasPrefix(out, "{") != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", !tt.wantJSON, tt.wantJSON, out)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo, FormatJSON)
	logger.Info("tick")

	rec := decode(t, buf.String())
	ts, ok := rec["time"].(string)
	if !ok {
		t.Fatalf("time missing: %v", rec)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want run-123", got)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID(empty) = %q", got)
	}
	wrong := context.WithValue(context.Background(), RunIDKey, 42)
	if got := GetRunID(wrong); got != "" {
		t.Errorf("GetRunID(wrong type) = %q", got)
	}

	output := captureLogOutput(func() {
		InfoContext(ctx, "hello")
	})
	if rec := decode(t, output); rec["run_id"] != "run-123" {
		t.Errorf("run_id missing from record: %v", rec)
	}
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name    string
		log     func()
		msg     string
		wantKey string
		wantVal any
	}{
		{
			name:    "source loaded",
			log:     func() { SourceLoaded("RM", "in/45ROM.usfm", 512) },
			msg:     "source_loaded",
			wantKey: "lines",
			wantVal: float64(512),
		},
		{
			name:    "book assembled",
			log:     func() { BookAssembled("JM", 5, "file", "59JAS.usfm") },
			msg:     "book_assembled",
			wantKey: "file",
			wantVal: "59JAS.usfm",
		},
		{
			name:    "output written",
			log:     func() { OutputWritten("chapter", "out/RM1.html", 2048) },
			msg:     "output_written",
			wantKey: "bytes",
			wantVal: float64(2048),
		},
		{
			name:    "generation complete",
			log:     func() { GenerationComplete(context.Background(), 7, 120, 1500*time.Millisecond) },
			msg:     "generation_complete",
			wantKey: "duration_ms",
			wantVal: float64(1500),
		},
		{
			name:    "unrecognized tags",
			log:     func() { UnrecognizedTags("GN", []string{"iot", "zz"}) },
			msg:     "unrecognized_tags",
			wantKey: "count",
			wantVal: float64(2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decode(t, captureLogOutput(tt.log))
			if rec["msg"] != tt.msg {
				t.Errorf("msg = %v, want %s", rec["msg"], tt.msg)
			}
			if rec[tt.wantKey] != tt.wantVal {
				t.Errorf("%s = %v, want %v", tt.wantKey, rec[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestUnrecognizedTagsEmpty(t *testing.T) {
	output := captureLogOutput(func() {
		UnrecognizedTags("GN", nil)
	})
	if output != "" {
		t.Errorf("expected no output for empty tag list, got %q", output)
	}
}

func TestLevelConstants(t *testing.T) {
	if LevelDebug != 0 || LevelInfo != 1 || LevelWarn != 2 || LevelError != 3 {
		t.Error("level constants changed order")
	}
	if FormatJSON != 0 || FormatText != 1 {
		t.Error("format constants changed order")
	}
}
