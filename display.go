package livecounter

// Display is the surface a [Counter] renders into.
//
// In the browser this was six text elements inside the widget container. The
// text currently shown doubles as the previous-value cache: [Counter.Render]
// compares against Text before deciding whether a field changed.
//
// Implementations must be safe for concurrent use. The counter never calls a
// Display from more than one goroutine at a time, but implementations are
// usually read concurrently by their own consumers (HTTP handlers, a terminal
// program).
type Display interface {
	// Text returns the text currently shown for the field.
	// Fields never written show [Placeholder].
	Text(field Field) string

	// SetText replaces the text shown for the field.
	SetText(field Field, text string)

	// SetHighlight turns the brief "value updated" cue on or off.
	SetHighlight(field Field, on bool)

	// Remove takes the widget off screen. No other method is called after it.
	Remove()
}
