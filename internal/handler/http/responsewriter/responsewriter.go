// Package responsewriter wraps http.ResponseWriter so middleware can see the
// status code and body size a handler produced.
package responsewriter

import (
	"net/http"
)

// ResponseWriter records the status code and byte count of a response.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

// Wrap returns w wrapped. A handler that never calls WriteHeader reports 200.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader forwards only the first call, like net/http does.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.statusCode = statusCode
	w.headerWritten = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// Flush sends buffered data to the client when the underlying writer supports it.
func (w *ResponseWriter) Flush() {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) StatusCode() int { return w.statusCode }

func (w *ResponseWriter) BytesWritten() int { return w.bytesWritten }

// Written reports whether the header has been sent.
func (w *ResponseWriter) Written() bool { return w.headerWritten }

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
