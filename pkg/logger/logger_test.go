package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetOutputJSONAndLevel(t *testing.T) {
	defer func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		Log = newLogger(consoleWriter(&bytes.Buffer{}), zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	SetOutput(&buf, "json")
	SetLevel("warn")

	Log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	Log.Warn().Str("warehouse", "Porto").Msg("kept")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "kept" || entry["warehouse"] != "Porto" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetLevelInvalidFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	SetOutput(&buf, "json")
	SetLevel("loud")
	if Log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %s, want info", Log.GetLevel())
	}
}
