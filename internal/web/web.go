// Package web holds the small HTTP helpers shared by the live server.
package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

func JSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json encode", "err", err)
	}
}

// Error writes {"error": msg, "code": code}.
func Error(w http.ResponseWriter, status int, code string, err error) {
	JSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

// StatusWriter wraps ResponseWriter to capture the status code.
// It preserves Hijacker and Flusher so WebSocket upgrades pass through.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (w *StatusWriter) WriteHeader(code int) {
	w.Code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter is not a Hijacker")
}

func (w *StatusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging logs one line per request at debug level.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.Code,
			"ms", time.Since(start).Milliseconds(),
		)
	})
}

// GetOnly rejects every method but GET and HEAD.
func GetOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			Error(w, http.StatusMethodNotAllowed, "method_not_allowed", fmt.Errorf("method %s not allowed", r.Method))
			return
		}
		next(w, r)
	}
}
