// Package mockstats serves a fake CourseGem /api/live-stats endpoint whose
// counts drift upwards, for demos and manual testing.
package mockstats

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// timestampLayout mirrors Python's datetime.isoformat() with microseconds.
const timestampLayout = "2006-01-02T15:04:05.000000"

// Options configures the mock.
type Options struct {
	// FailureRate is the fraction of requests answered with a 500, 0..1.
	FailureRate float64

	// Latency is the maximum random delay added to each response.
	Latency time.Duration

	// Rand drives growth, failures and latency. Defaults to a time-seeded source.
	Rand *rand.Rand

	Logger *slog.Logger
}

// Stats is the mutable state behind the endpoint.
type Stats struct {
	mu          sync.Mutex
	courses     int
	categories  int
	languages   int
	udemy       int
	studyBullet int
	lastAdded   string

	opts Options
	now  func() time.Time
}

// New creates a mock seeded with plausible production numbers.
func New(opts Options) *Stats {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Stats{
		courses:     12480,
		categories:  64,
		languages:   18,
		udemy:       9310,
		studyBullet: 3170,
		lastAdded:   "N/A",
		opts:        opts,
		now:         time.Now,
	}
}

// Handler returns the router serving GET /api/live-stats.
func (s *Stats) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/api/live-stats", s.handleLiveStats)
	return r
}

// response is the body of a successful request.
type response struct {
	TotalCourses     int    `json:"total_courses"`
	TotalCategories  int    `json:"total_categories"`
	TotalLanguages   int    `json:"total_languages"`
	LastAdded        string `json:"last_added"`
	UdemyCount       int    `json:"udemy_count"`
	StudyBulletCount int    `json:"studybullet_count"`
	Timestamp        string `json:"timestamp"`
}

func (s *Stats) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay := time.Duration(0)
	if s.opts.Latency > 0 {
		delay = time.Duration(s.opts.Rand.Int63n(int64(s.opts.Latency)))
	}
	fail := s.opts.FailureRate > 0 && s.opts.Rand.Float64() < s.opts.FailureRate
	var resp response
	if !fail {
		s.grow()
		resp = s.responseLocked()
	}
	s.mu.Unlock()

	// simulate latency variance
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if fail {
		s.opts.Logger.Info("mock failure", "request_id", middleware.GetReqID(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
		return
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.opts.Logger.Error("failed to write response", "error", err)
	}
}

// grow adds a few courses to a random source. Caller holds s.mu.
func (s *Stats) grow() {
	added := s.opts.Rand.Intn(4)
	if added == 0 {
		return
	}
	if s.opts.Rand.Intn(2) == 0 {
		s.udemy += added
	} else {
		s.studyBullet += added
	}
	s.courses += added
	s.lastAdded = s.now().UTC().Format("2006-01-02 15:04")
	s.opts.Logger.Info("courses added", "count", added, "total", s.courses)
}

func (s *Stats) responseLocked() response {
	return response{
		TotalCourses:     s.courses,
		TotalCategories:  s.categories,
		TotalLanguages:   s.languages,
		LastAdded:        s.lastAdded,
		UdemyCount:       s.udemy,
		StudyBulletCount: s.studyBullet,
		Timestamp:        s.now().UTC().Format(timestampLayout),
	}
}
