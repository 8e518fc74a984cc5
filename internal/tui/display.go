package tui

import (
	"sync"

	"github.com/jpalmerr/livecounter"
)

// Row is one widget line as the terminal renders it.
type Row struct {
	Field       livecounter.Field
	Label       string
	Text        string
	Highlighted bool
}

// Display is a [livecounter.Display] read by the terminal program.
//
// The counter writes into it from its own goroutines and the [Model] reads it
// on every refresh tick, so neither side blocks the other.
type Display struct {
	mu          sync.RWMutex
	text        map[livecounter.Field]string
	highlighted map[livecounter.Field]bool
	removed     bool
}

// NewDisplay returns a Display with every field showing the placeholder.
func NewDisplay() *Display {
	return &Display{
		text:        make(map[livecounter.Field]string),
		highlighted: make(map[livecounter.Field]bool),
	}
}

func (d *Display) Text(field livecounter.Field) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if t, ok := d.text[field]; ok {
		return t
	}
	return livecounter.Placeholder
}

func (d *Display) SetText(field livecounter.Field, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text[field] = text
}

func (d *Display) SetHighlight(field livecounter.Field, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.highlighted[field] = on
}

func (d *Display) Remove() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removed = true
}

// Removed reports whether the counter has taken the widget down.
func (d *Display) Removed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.removed
}

// Rows returns every field in widget order.
func (d *Display) Rows() []Row {
	d.mu.RLock()
	defer d.mu.RUnlock()

	fields := livecounter.Fields()
	rows := make([]Row, 0, len(fields))
	for _, f := range fields {
		text, ok := d.text[f]
		if !ok {
			text = livecounter.Placeholder
		}
		rows = append(rows, Row{
			Field:       f,
			Label:       f.Label(),
			Text:        text,
			Highlighted: d.highlighted[f],
		})
	}
	return rows
}
