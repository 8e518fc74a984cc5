package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/livecounter/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects visibility transitions.
type recorder struct {
	mu  sync.Mutex
	got []bool
}

func (r *recorder) set(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, v)
}

func (r *recorder) calls() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.got...)
}

func TestViewers_VisibleWhileAnyPageVisible(t *testing.T) {
	rec := &recorder{}
	v := newViewers(rec.set)
	assert.True(t, v.Visible(), "no reports means visible")

	v.report("a", false)
	assert.False(t, v.Visible())

	v.report("b", true)
	assert.True(t, v.Visible())

	// one page hiding does not pause the other
	v.report("a", false)
	assert.True(t, v.Visible())

	v.report("b", false)
	assert.False(t, v.Visible())

	v.report("a", true)
	assert.True(t, v.Visible())

	assert.Equal(t, []bool{false, true, false, true}, rec.calls())
}

func TestViewers_Forget(t *testing.T) {
	rec := &recorder{}
	v := newViewers(rec.set)

	v.report("a", true)
	v.report("b", false)
	assert.True(t, v.Visible())

	// the only visible page closes
	v.forget("a")
	assert.False(t, v.Visible())

	// the last page closes; nobody is watching but nobody asked to pause
	v.forget("b")
	assert.True(t, v.Visible())

	v.forget("unknown")
	assert.Equal(t, []bool{false, true}, rec.calls())
}

func postVisibility(t *testing.T, h http.Handler, body string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/visibility", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleVisibility_MultiplePages(t *testing.T) {
	rec := &recorder{}
	srv := NewServer(store.NewMemoryStore(), Options{OnVisibility: rec.set}, testLogger())
	h := srv.Handler()

	postVisibility(t, h, `{"page": "tab-1", "visible": true}`)
	postVisibility(t, h, `{"page": "tab-2", "visible": false}`)
	assert.Empty(t, rec.calls(), "a visible tab keeps polling on")

	postVisibility(t, h, `{"page": "tab-1", "visible": false}`)
	assert.Equal(t, []bool{false}, rec.calls())

	postVisibility(t, h, `{"page": "tab-2", "visible": true}`)
	assert.Equal(t, []bool{false, true}, rec.calls())
}

func TestHandleSSE_ClosingStreamForgetsPage(t *testing.T) {
	rec := &recorder{}
	srv := NewServer(store.NewMemoryStore(), Options{OnVisibility: rec.set}, testLogger())
	h := srv.Handler()

	postVisibility(t, h, `{"page": "tab-1", "visible": true}`)
	postVisibility(t, h, `{"page": "tab-2", "visible": false}`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodGet, "/api/sse?page=tab-1", nil).WithContext(ctx)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SSE handler did not return")
	}

	// only the hidden tab is left
	assert.Equal(t, []bool{false}, rec.calls())
}
