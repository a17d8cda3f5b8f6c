package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"estimation/collections"
	"estimation/interchange"
	"estimation/project"
	"estimation/recap"
	"estimation/store"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e
}

// demoStore returns a memory store holding the demo estimation under "villa".
func demoStore(t *testing.T) (*store.Memory, *project.Project) {
	t.Helper()
	p, err := collections.DemoProject(recap.DefaultConfig())
	if err != nil {
		t.Fatalf("DemoProject() error: %v", err)
	}
	data, err := interchange.ExportJSON(p)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemory()
	if err := st.Put(context.Background(), "villa", data); err != nil {
		t.Fatal(err)
	}
	return st, p
}

// decodeToast returns the toast payload of the HX-Trigger header.
func decodeToast(t *testing.T, rec *httptest.ResponseRecorder) toastPayload {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	raw, ok := parsed[toastEvent]
	if !ok {
		t.Fatalf("expected %s key in HX-Trigger JSON: %s", toastEvent, trigger)
	}
	var toast toastPayload
	if err := json.Unmarshal(raw, &toast); err != nil {
		t.Fatalf("%s value is not valid JSON: %v", toastEvent, err)
	}
	return toast
}

// uploadRequest builds a multipart POST carrying one file.
func uploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
