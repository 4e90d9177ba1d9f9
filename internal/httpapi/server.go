// Package httpapi implements the Request Dispatcher (design §4.E): the
// four fixed routes of the MJPEG core, GET/HEAD only, no query-string
// interpretation or dynamic routing.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/warpcomdev/ustreamerd/internal/hub"
	"github.com/warpcomdev/ustreamerd/internal/metrics"
	"github.com/warpcomdev/ustreamerd/internal/mjpeg"
	"github.com/warpcomdev/ustreamerd/internal/svclog"
)

const (
	cacheControlNoStore = "no-store, no-cache, must-revalidate, pre-check=0, post-check=0, max-age=0"
	expiresInThePast    = "Mon, 3 Jan 2000 12:34:56 GMT"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>ustreamerd</title></head>
<body>
<h1>ustreamerd</h1>
<ul>
<li><a href="/ping">/ping</a></li>
<li><a href="/snapshot">/snapshot</a></li>
<li><a href="/stream">/stream</a></li>
</ul>
</body>
</html>
`

// Server wires the hub into an http.Handler implementing the four
// routes plus /metrics.
type Server struct {
	hub     *hub.Hub
	logger  svclog.Logger
	metrics *metrics.Metrics
	mux     http.Handler
}

// New builds the Request Dispatcher.
func New(h *hub.Hub, logger svclog.Logger, m *metrics.Metrics) *Server {
	s := &Server{hub: h, logger: logger, metrics: m}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(methodWhitelist)
	r.Use(headAsGet)

	r.Get("/", s.handleIndex)
	r.Get("/ping", s.handlePing)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/stream", s.handleStream)
	r.Handle("/metrics", m.Handler())

	s.mux = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// methodWhitelist enforces spec.md §4.E: only GET and HEAD are
// accepted; every other method gets a plain-text 405 Method Not
// Allowed written by this middleware.
func methodWhitelist(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// headAsGet lets a single GET-registered handler also serve HEAD: the
// handler runs exactly as it would for GET, but the response body is
// discarded. /stream overrides this (see handleStream) since a HEAD
// request must never hijack the connection or register a client.
func headAsGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// Route HEAD through the GET-registered handlers.
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				rctx.RouteMethod = http.MethodGet
			}
		}
		if r.Method != http.MethodHead || r.URL.Path == "/stream" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(headOnlyWriter{w}, r)
	})
}

// headOnlyWriter discards the response body while passing headers and
// the status code through untouched, giving HEAD a 200 with an empty
// body. Headers the handler sets, Content-Type and X-Timestamp
// included, are not removed.
type headOnlyWriter struct {
	http.ResponseWriter
}

func (h headOnlyWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

type pingResponse struct {
	Stream struct {
		Resolution struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"resolution"`
		Online bool `json:"online"`
	} `json:"stream"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.metrics.PingRequests.Inc()
	snap := s.hub.Snapshot()

	var resp pingResponse
	resp.Stream.Resolution.Width = snap.Width
	resp.Stream.Resolution.Height = snap.Height
	resp.Stream.Online = snap.Online

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.metrics.SnapshotRequests.Inc()
	snap := s.hub.Snapshot()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", cacheControlNoStore)
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", expiresInThePast)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Timestamp", mjpeg.Timestamp(time.Now()))
	w.Write(snap.Data)
}

// handleStream registers conn as a streaming client, taking over its
// connection for raw MJPEG push writes. HEAD is answered directly,
// without ever hijacking or registering anything (spec.md Property 8,
// scenario E6).
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		s.logger.Debug("hijack failed", svclog.Err(err))
		return
	}
	s.hub.Register(conn)
}
