package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body["error"]
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		data         any
		expectedBody string
	}{
		{
			name:         "map",
			code:         http.StatusOK,
			data:         map[string]string{"status": "ok"},
			expectedBody: `{"status":"ok"}`,
		},
		{
			name:         "struct",
			code:         http.StatusOK,
			data:         struct{ Count int }{Count: 3},
			expectedBody: `{"Count":3}`,
		},
		{
			name:         "nil",
			code:         http.StatusNoContent,
			data:         nil,
			expectedBody: "",
		},
		{
			name:         "error status",
			code:         http.StatusBadRequest,
			data:         map[string]string{"error": "bad request"},
			expectedBody: `{"error":"bad request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			if w.Code != tt.code {
				t.Errorf("Code = %v, want %v", w.Code, tt.code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %v, want application/json", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tt.expectedBody {
				t.Errorf("Body = %v, want %v", body, tt.expectedBody)
			}
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, make(chan int))

	if w.Code != http.StatusOK {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, errors.New("record not found"))

	if w.Code != http.StatusNotFound {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusNotFound)
	}
	if msg := decodeError(t, w); msg != "record not found" {
		t.Errorf("Error message = %v, want %v", msg, "record not found")
	}
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		err         error
		expectedMsg string
	}{
		{"required", http.StatusBadRequest, errors.New("url is required"), "url is required"},
		{"invalid", http.StatusBadRequest, errors.New("invalid limit"), "invalid limit"},
		{"not found", http.StatusNotFound, errors.New("record not found"), "record not found"},
		{"must be", http.StatusBadRequest, errors.New("limit must be between 1 and 500"), "limit must be between 1 and 500"},
		{"out of range", http.StatusBadRequest, errors.New("limit out of range"), "limit out of range"},
		{"unknown client error", http.StatusBadRequest, errors.New("something odd"), "internal server error"},
		{"database error", http.StatusInternalServerError, errors.New("database connection failed"), "internal server error"},
		{"secret in 500", http.StatusInternalServerError, errors.New("postgres://user:secret@db"), "internal server error"},
		{"5xx always unsafe", http.StatusServiceUnavailable, errors.New("url is required"), "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			if w.Code != tt.code {
				t.Errorf("Code = %v, want %v", w.Code, tt.code)
			}
			if msg := decodeError(t, w); msg != tt.expectedMsg {
				t.Errorf("Error message = %v, want %v", msg, tt.expectedMsg)
			}
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)

	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for nil error, got: %v", w.Body.String())
	}
}

func TestAppError(t *testing.T) {
	inner := errors.New("scan failed")

	err := NewAppError(http.StatusInternalServerError, "failed to load records", inner)
	if err.Error() != "scan failed" {
		t.Errorf("Error() = %v, want %v", err.Error(), "scan failed")
	}
	if !errors.Is(err, inner) {
		t.Error("expected AppError to unwrap to inner error")
	}

	noInner := NewAppError(http.StatusBadRequest, "bad category", nil)
	if noInner.Error() != "bad category" {
		t.Errorf("Error() = %v, want %v", noInner.Error(), "bad category")
	}
	if errors.Unwrap(noInner) != nil {
		t.Error("expected nil Unwrap")
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "AppError decides code and message",
			code:         http.StatusInternalServerError,
			err:          NewAppError(http.StatusBadRequest, "limit must be a number", errors.New("strconv: parsing")),
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "limit must be a number",
		},
		{
			name:         "wrapped AppError",
			code:         http.StatusInternalServerError,
			err:          fmt.Errorf("list: %w", NewAppError(http.StatusServiceUnavailable, "storage unavailable", errors.New("postgres://u:p@db down"))),
			expectedCode: http.StatusServiceUnavailable,
			expectedMsg:  "storage unavailable",
		},
		{
			name:         "plain error falls back to SafeError",
			code:         http.StatusBadRequest,
			err:          errors.New("url is required"),
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "url is required",
		},
		{
			name:         "plain internal error",
			code:         http.StatusInternalServerError,
			err:          errors.New("query failed"),
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.code, tt.err)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}
			if msg := decodeError(t, w); msg != tt.expectedMsg {
				t.Errorf("Error message = %v, want %v", msg, tt.expectedMsg)
			}
		})
	}
}
