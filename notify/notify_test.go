package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLog_Levels(t *testing.T) {
	tests := []struct {
		kind  Kind
		level string
	}{
		{Success, "INFO"},
		{Info, "INFO"},
		{Error, "WARN"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var buf bytes.Buffer
			Log{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}.Notify(tt.kind, "Import", "fichier illisible")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log output is not JSON: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "Import" || entry["message"] != "fichier illisible" || entry["kind"] != string(tt.kind) {
				t.Errorf("unexpected entry %v", entry)
			}
		})
	}
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	Multi(&a, Discard, &b).Notify(Success, "Enregistré", "")

	for _, r := range []*Recorder{&a, &b} {
		got, ok := r.Last()
		if !ok || got.Kind != Success || got.Title != "Enregistré" {
			t.Errorf("Last() = %+v, %v", got, ok)
		}
	}
}

func TestRecorder_Empty(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Error("Last() on empty recorder reported a notification")
	}
	if len(r.All()) != 0 {
		t.Error("All() on empty recorder is not empty")
	}
}
