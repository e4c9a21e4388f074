package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{BadRequest("x"), http.StatusBadRequest},
		{ValidationWrap(stderrors.New("bad"), "x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{RateLimit("x"), http.StatusTooManyRequests},
		{ServiceUnavailable("x"), http.StatusServiceUnavailable},
		{New(CodeTimeout, "x"), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Code, tt.err.StatusCode, tt.want)
		}
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := InternalWrap(cause, "save failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if err.Error() != "INTERNAL_ERROR: save failed (caused by: disk full)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(fmt.Errorf("compute: %w", context.DeadlineExceeded), "x").Code; got != CodeTimeout {
		t.Errorf("deadline code = %s", got)
	}
	if got := FromContext(context.Canceled, "x").Code; got != CodeServiceUnavail {
		t.Errorf("canceled code = %s", got)
	}
	if got := FromContext(stderrors.New("other"), "x").Code; got != CodeInternal {
		t.Errorf("other code = %s", got)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), ValidationWrap(stderrors.New("top_n out of range"), "Invalid selections"), "req-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Details   string `json:"details"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error.Code != "VALIDATION_ERROR" || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Error.Details != "top_n out of range" {
		t.Errorf("details = %q", resp.Error.Details)
	}
}

func TestWriteError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), fmt.Errorf("wrapped: %w", NotFound("missing")), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("wrapped AppError should keep its status, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	WriteError(w, testLogger(), stderrors.New("boom"), "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("plain error should be internal, got %d", w.Code)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("custom header missing")
	}
	if w.Body.String() != `{"data":{"rows":3},"success":true}`+"\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}
