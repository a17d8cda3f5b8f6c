package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"

	"estimation/notify"
)

// toastEvent is the client-side event fired through HX-Trigger.
const toastEvent = "showToast"

type toastPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. An existing HX-Trigger JSON object keeps its other
// events. It also sets a flash cookie so toasts survive regular (non-HTMX)
// redirects.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	setToast(e, toastPayload{Type: toastType, Message: message})
}

func setToast(e *core.RequestEvent, toast toastPayload) {
	header, err := mergeTrigger(e.Response.Header().Get("HX-Trigger"), toastEvent, toast)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", header)

	cookieVal, err := json.Marshal(toast)
	if err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // read by the page script
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// mergeTrigger adds event to an HX-Trigger value. A value that is not a JSON
// object is replaced.
func mergeTrigger(existing, event string, payload any) (string, error) {
	events := map[string]any{}
	if existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil || events == nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			events = map[string]any{}
		}
	}
	events[event] = payload
	data, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ErrorToast sets an error toast and prevents HTMX from swapping the error text into the DOM.
// HX-Reswap: none makes HTMX ignore the body while HX-Trigger still fires the toast.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, string(notify.Error), message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// Toaster delivers notifications as toasts on the response of one request.
// Notifications must arrive before the response body is written.
type Toaster struct {
	e *core.RequestEvent
}

// NewToaster returns a notifier writing toasts to e.
func NewToaster(e *core.RequestEvent) Toaster {
	return Toaster{e: e}
}

func (t Toaster) Notify(kind notify.Kind, title, message string) {
	setToast(t.e, toastPayload{Type: string(kind), Title: title, Message: message})
}
