package server

import "sync"

// viewers folds the visibility reports of every open widget page into one
// signal. The counter is visible while any page is visible, and while no page
// has reported at all. A page is forgotten when its SSE stream ends.
type viewers struct {
	mu       sync.Mutex
	pages    map[string]bool
	visible  bool
	onChange func(visible bool)
}

func newViewers(onChange func(visible bool)) *viewers {
	return &viewers{
		pages:    make(map[string]bool),
		visible:  true,
		onChange: onChange,
	}
}

// report records the visibility of one page. Pages that send no id share the
// empty id.
func (v *viewers) report(page string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pages[page] = visible
	v.updateLocked()
}

// forget drops a page that has gone away.
func (v *viewers) forget(page string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.pages[page]; !ok {
		return
	}
	delete(v.pages, page)
	v.updateLocked()
}

// Visible reports the combined visibility.
func (v *viewers) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

// updateLocked recomputes the combined visibility and reports transitions.
// onChange runs under v.mu so transitions are delivered in order.
func (v *viewers) updateLocked() {
	visible := len(v.pages) == 0
	for _, pv := range v.pages {
		if pv {
			visible = true
			break
		}
	}
	if visible == v.visible {
		return
	}
	v.visible = visible
	v.onChange(visible)
}
