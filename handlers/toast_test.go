package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"estimation/notify"
)

func newToastEvent() (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	return e, rec
}

func TestSetToast_Types(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", "success", "Import réussi"},
		{"error", "error", "Échec de l'enregistrement"},
		{"info", "info", "Estimation ouverte"},
		{"quotes", "info", `Section "Fondations" ajoutée`},
		{"angle brackets", "info", `<script>alert("xss")</script>`},
		{"newline", "info", "ligne 1\nligne 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent()
			SetToast(e, tt.toastType, tt.message)

			toast := decodeToast(t, rec)
			if toast.Type != tt.toastType {
				t.Errorf("expected type %q, got %q", tt.toastType, toast.Type)
			}
			if toast.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, toast.Message)
			}
			if len(rec.Result().Cookies()) == 0 {
				t.Error("expected flash_toast cookie to be set")
			}
		})
	}
}

func TestSetToast_MergesWithExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", `{"recapChanged":{"key":"villa"}}`)

	SetToast(e, "success", "Merged toast")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if string(parsed["recapChanged"]) != `{"key":"villa"}` {
		t.Errorf("expected recapChanged to be preserved, got %s", parsed["recapChanged"])
	}
	if toast := decodeToast(t, rec); toast.Message != "Merged toast" {
		t.Errorf("expected message %q, got %q", "Merged toast", toast.Message)
	}
}

func TestSetToast_OverwritesInvalidExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, "error", "Overwritten")

	if toast := decodeToast(t, rec); toast.Message != "Overwritten" {
		t.Errorf("expected message %q, got %q", "Overwritten", toast.Message)
	}
}

func TestErrorToast_SetsHeaderAndReswap(t *testing.T) {
	tests := []struct {
		code int
		msg  string
	}{
		{http.StatusBadRequest, "Aucun fichier reçu"},
		{http.StatusNotFound, "Estimation introuvable"},
		{http.StatusInternalServerError, "Échec de l'enregistrement"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			e, rec := newToastEvent()
			if err := ErrorToast(e, tt.code, tt.msg); err != nil {
				t.Fatalf("ErrorToast returned error: %v", err)
			}
			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap: none")
			}
			if rec.Body.String() != tt.msg {
				t.Errorf("expected body %q, got %q", tt.msg, rec.Body.String())
			}
			if toast := decodeToast(t, rec); toast.Type != "error" {
				t.Errorf("expected type 'error', got %q", toast.Type)
			}
		})
	}
}

func TestToaster_Notify(t *testing.T) {
	e, rec := newToastEvent()
	var n notify.Notifier = NewToaster(e)

	n.Notify(notify.Success, "Import réussi", "3 sections")

	toast := decodeToast(t, rec)
	if toast.Type != "success" || toast.Title != "Import réussi" || toast.Message != "3 sections" {
		t.Errorf("toast = %+v", toast)
	}

	n.Notify(notify.Error, "Échec de l'enregistrement", "disque plein")
	if toast := decodeToast(t, rec); toast.Type != "error" {
		t.Errorf("later notification should replace the toast, got %+v", toast)
	}
}
