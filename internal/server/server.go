package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jpalmerr/livecounter/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// maxVisibilityBody caps the POST /api/visibility payload.
	maxVisibilityBody = 1 << 10

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "CourseGem Live"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Options configures a [Server].
type Options struct {
	// Port is the TCP port to listen on.
	Port int

	// Assets holds assets/index.html. May be nil, in which case "/" is not served.
	Assets fs.FS

	// Title replaces {{.Title}} in the widget page. Defaults to "CourseGem Live".
	Title string

	// AllowedOrigins lists CORS origins for the API. Defaults to any origin.
	AllowedOrigins []string

	// OnVisibility receives the combined visibility of every open page:
	// visible while at least one page is visible or none has reported.
	// When nil, POST /api/visibility is not routed.
	OnVisibility func(visible bool)
}

// Server handles HTTP requests for the live counter widget.
//
// Server provides these endpoints:
//   - GET /: Serves the embedded widget page
//   - GET /api/counter: Returns every field as JSON
//   - GET /api/sse: Server-Sent Events stream of field updates
//   - POST /api/visibility: Records one page's visibility for the counter
//   - GET /healthz: Liveness probe
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	opts       Options
	httpServer *http.Server
	logger     *slog.Logger
	viewers    *viewers
}

// NewServer creates a new HTTP [Server] reading from st.
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		store:  st,
		opts:   opts,
		logger: logger,
	}
	if opts.OnVisibility != nil {
		s.viewers = newViewers(opts.OnVisibility)
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control", "Last-Event-ID"},
			MaxAge:         300,
		}))

		api.Get("/counter", s.handleCounter)
		api.Get("/sse", s.handleSSE)
		if s.opts.OnVisibility != nil {
			api.Post("/visibility", s.handleVisibility)
		}
	})

	// serve widget assets
	if s.opts.Assets != nil {
		r.Get("/", s.handleWidget)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.opts.Port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("widget server listening", "addr", ln.Addr().String())
	return nil
}

// handleWidget serves the widget page.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.opts.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Widget not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	safeTitle := html.EscapeString(s.opts.Title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write widget response", "error", err)
	}
}

// counterResponse is the body of GET /api/counter.
type counterResponse struct {
	Fields  []store.FieldState `json:"fields"`
	Removed bool               `json:"removed"`
}

// handleCounter returns every field as JSON.
func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	resp := counterResponse{
		Fields:  s.store.GetAll(),
		Removed: s.store.Removed(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode counter response", "error", err)
	}
}

type visibilityRequest struct {
	// Page identifies the reporting page; it matches the "page" query
	// parameter of that page's SSE stream.
	Page    string `json:"page"`
	Visible *bool  `json:"visible"`
}

// handleVisibility forwards a page visibility report to the counter.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxVisibilityBody)

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Visible == nil {
		http.Error(w, `missing "visible"`, http.StatusBadRequest)
		return
	}

	s.logger.Debug("visibility reported",
		"page", req.Page,
		"visible", *req.Visible,
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.viewers.report(req.Page, *req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports 200 while the widget is live and 503 once it has been
// removed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.store.Removed() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"removed"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleSSE streams field updates via Server-Sent Events.
//
// Every field is sent once on connect, then each change as it happens. When
// the counter stops, a "removed" event is sent and the stream ends.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	// writeAndFlush writes one SSE message with a deadline to prevent blocking
	// forever on a slow or disconnected client.
	writeAndFlush := func(event string, data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if event != "" {
			if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// a closed stream means the page is gone
	if page := r.URL.Query().Get("page"); page != "" && s.viewers != nil {
		defer s.viewers.forget(page)
	}

	// subscribe before reading state so no change slips between the two
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if s.store.Removed() {
		_ = writeAndFlush(string(store.EventRemoved), []byte("{}"))
		return
	}

	// send initial state (also protected by write deadline)
	for _, field := range s.store.GetAll() {
		data, err := json.Marshal(field)
		if err != nil {
			continue
		}
		if err := writeAndFlush("", data); err != nil {
			return
		}
	}

	// stream updates
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type == store.EventRemoved {
				_ = writeAndFlush(string(store.EventRemoved), []byte("{}"))
				return
			}
			data, err := json.Marshal(ev.Field)
			if err != nil {
				continue
			}
			if err := writeAndFlush("", data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
