package livecounter

import (
	"io"
	"log/slog"
	"sync"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDisplay records every call made by a Counter.
type fakeDisplay struct {
	mu          sync.Mutex
	texts       map[Field]string
	writes      map[Field][]string
	highlighted map[Field]bool
	highlights  map[Field]int
	removed     bool
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		texts:       make(map[Field]string),
		writes:      make(map[Field][]string),
		highlighted: make(map[Field]bool),
		highlights:  make(map[Field]int),
	}
}

// preset sets text without recording a write.
func (d *fakeDisplay) preset(f Field, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts[f] = text
}

func (d *fakeDisplay) Text(f Field) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.texts[f]; ok {
		return t
	}
	return Placeholder
}

func (d *fakeDisplay) SetText(f Field, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts[f] = text
	d.writes[f] = append(d.writes[f], text)
}

func (d *fakeDisplay) SetHighlight(f Field, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.highlighted[f] = on
	if on {
		d.highlights[f]++
	}
}

func (d *fakeDisplay) Remove() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removed = true
}

func (d *fakeDisplay) writesFor(f Field) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes[f]...)
}

func (d *fakeDisplay) highlightCount(f Field) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highlights[f]
}

func (d *fakeDisplay) isHighlighted(f Field) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highlighted[f]
}

func (d *fakeDisplay) isRemoved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removed
}

// allTexts returns the current text of every field.
func (d *fakeDisplay) allTexts() map[Field]string {
	out := make(map[Field]string)
	for _, f := range Fields() {
		out[f] = d.Text(f)
	}
	return out
}
