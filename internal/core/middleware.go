package core

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"assetgate/internal/auth"
)

const RequestIDHeader = "X-Request-ID"

// ResponseWriterWrapper is a wrapper around the default http.ResponseWriter.
// It intercepts the WriteHeader call and saves the response status code.
type ResponseWriterWrapper struct {
	http.ResponseWriter
	WrittenResponseCode int
}

// WriteHeader intercepts the status code and stores it, then calls the original WriteHeader.
func (w *ResponseWriterWrapper) WriteHeader(statusCode int) {
	w.WrittenResponseCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write calls the underlying ResponseWriter's Write method.
func (w *ResponseWriterWrapper) Write(b []byte) (int, error) {
	if w.WrittenResponseCode == 0 {
		w.WrittenResponseCode = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type LogEntry struct {
	ID         string
	IP         string
	Method     string
	URL        string
	Proto      string
	Route      string
	DurationMS float64
	StatusCode int
}

func (e LogEntry) User() slog.Attr {
	return slog.Group("user", "ip", e.IP)
}

func (e LogEntry) Request() slog.Attr {
	return slog.Group("request",
		"id", e.ID,
		"proto", e.Proto,
		"method", e.Method,
		"url", e.URL,
		"route", e.Route,
		"duration_ms", e.DurationMS,
		"status_code", e.StatusCode,
	)
}

type requestIDKey struct{}

// RequestID returns the ID assigned to the request by LogRequest.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LogRequest is middleware that assigns a request ID, logs the request once
// it completes and records it in the HTTP metrics.
func (s *Server) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		entry := LogEntry{
			ID:     id,
			IP:     r.RemoteAddr,
			Method: r.Method,
			URL:    r.URL.String(),
			Proto:  r.Proto,
		}

		writer := ResponseWriterWrapper{ResponseWriter: w}

		start := time.Now()
		next.ServeHTTP(&writer, r)
		elapsed := time.Since(start)

		if writer.WrittenResponseCode == 0 {
			writer.WrittenResponseCode = http.StatusOK
		}

		// The mux records the matched pattern on the request it was given.
		entry.Route = r.Pattern
		if entry.Route == "" {
			entry.Route = "unmatched"
		}
		entry.DurationMS = float64(elapsed.Nanoseconds()) / float64(time.Millisecond)
		entry.StatusCode = writer.WrittenResponseCode

		s.metrics.observe(entry.Route, entry.StatusCode, elapsed)

		switch {
		case writer.WrittenResponseCode >= 500:
			slog.Error("Request", entry.User(), entry.Request())
		case writer.WrittenResponseCode >= 400:
			slog.Warn("Request", entry.User(), entry.Request())
		default:
			slog.Info("Request", entry.User(), entry.Request())
		}
	})
}

// LimitBody is middleware that caps request bodies at MaxUploadBytes. It
// must see the server's own ResponseWriter so that hitting the limit also
// closes the connection.
func (s *Server) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)
		next.ServeHTTP(w, r)
	})
}

// RequireClaims is middleware that authenticates the caller and stores the
// resulting claims in the request context. Requests without valid
// credentials are rejected before reaching next.
func (s *Server) RequireClaims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		claims, err := s.Config.Authenticator.AuthenticateRequest(ctx, r)
		if err != nil {
			slog.Debug("Rejected credentials", "request_id", RequestID(ctx), "err", err)
			writeUnauthorized(w)
			return
		}
		if claims == nil {
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(ctx, claims)))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="assetgate"`)
	writeError(w, http.StatusUnauthorized, "Missing or invalid bearer token.")
}

func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					// we don't recover http.ErrAbortHandler so the response
					// to the client is aborted, this should not be logged
					panic(rvr)
				}

				slog.Error("Internal Error in HTTP handler", "request_id", RequestID(r.Context()), "error", rvr)

				if r.Header.Get("Connection") != "Upgrade" {
					w.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(w, r)
	})
}
