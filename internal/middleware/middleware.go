package middleware

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs HTTP requests
func Logger(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&logFormatter{logger: logger})
}

// logFormatter implements middleware.LogFormatter
type logFormatter struct {
	logger *logrus.Logger
}

// NewLogEntry creates a new log entry for the request
func (l *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	entry := &logEntry{
		logger: l.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote_ip":  r.RemoteAddr,
		}),
	}

	entry.logger.Debug("Request started")
	return entry
}

// logEntry implements middleware.LogEntry
type logEntry struct {
	logger *logrus.Entry
}

// Write logs the response
func (l *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	l.logger.WithFields(logrus.Fields{
		"status":  status,
		"bytes":   bytes,
		"elapsed": elapsed,
	}).Info("Request completed")
}

// Panic logs panics
func (l *logEntry) Panic(v interface{}, stack []byte) {
	l.logger.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("Request panicked")
}

// CORS returns a CORS middleware with appropriate settings
func CORS() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JSON ensures requests with a body declare a JSON content type
func JSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		// Body-less POSTs such as /run are fine without a content type
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"message":"Content-Type must be application/json"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BodyLimit limits the request body size for POST and PUT requests. A
// non-positive limit disables limiting.
func BodyLimit(limit int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
				if r.ContentLength > limit {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					_, _ = w.Write([]byte(`{"message":"request body too large"}`))
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recovery recovers from panics with chi's Recoverer. The panic and its stack
// go to the request's log entry, or to logger when no request logger is
// installed, and the client gets a JSON 500.
func Recovery(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		recoverer := middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			completed := false
			defer func() {
				if pw, ok := w.(*panicWriter); ok && !completed {
					pw.panicked = true
				}
			}()
			next.ServeHTTP(w, r)
			completed = true
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if middleware.GetLogEntry(r) == nil {
				r = middleware.WithLogEntry(r, &logEntry{
					logger: logger.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					}),
				})
			}
			recoverer.ServeHTTP(&panicWriter{ResponseWriter: w}, r)
		})
	}
}

// panicWriter turns the bare 500 written after a recovered panic into a JSON error
type panicWriter struct {
	http.ResponseWriter
	panicked    bool
	wroteHeader bool
}

func (w *panicWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if w.panicked && code == http.StatusInternalServerError {
		w.Header().Set("Content-Type", "application/json")
		w.ResponseWriter.WriteHeader(code)
		_, _ = w.ResponseWriter.Write([]byte(`{"message":"Internal server error"}`))
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *panicWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades through
func (w *panicWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *panicWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *panicWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
