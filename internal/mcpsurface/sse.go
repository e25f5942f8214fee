package mcpsurface

import (
	"bytes"
	"net/http"
	"strings"
)

// sseResponseWriter buffers one JSON-RPC response body so it can be wrapped
// in a single SSE "message" event on flush, reusing the same dispatch logic
// the streamable-HTTP transport uses (spec.md §1: SSE framing detail is out
// of scope, so only the minimum needed to carry one response is built here).
type sseResponseWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func (w *sseResponseWriter) Header() http.Header {
	return w.ResponseWriter.Header()
}

func (w *sseResponseWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *sseResponseWriter) WriteHeader(code int) {
	w.statusCode = code
}

func (w *sseResponseWriter) flush() {
	body := strings.ReplaceAll(w.buf.String(), "\n", "")
	w.ResponseWriter.Header().Set("Content-Type", "text/event-stream")
	w.ResponseWriter.WriteHeader(http.StatusOK)
	w.ResponseWriter.Write([]byte("event: message\ndata: " + body + "\n\n"))
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
