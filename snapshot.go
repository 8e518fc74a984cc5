package livecounter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Placeholder is the text every field shows before the first successful fetch.
const Placeholder = "--"

// Field identifies one of the statistics shown by the counter widget.
//
// The string value of a Field is the key used by the /api/live-stats
// response body.
type Field string

const (
	// FieldTotalCourses is the number of published courses across all sources.
	FieldTotalCourses Field = "total_courses"

	// FieldTotalCategories is the number of distinct course categories.
	FieldTotalCategories Field = "total_categories"

	// FieldTotalLanguages is the number of distinct course languages.
	FieldTotalLanguages Field = "total_languages"

	// FieldLastAdded is a human-readable label such as "5 minutes ago".
	FieldLastAdded Field = "last_added"

	// FieldUdemyCount is the number of published UdemyFreebies courses.
	FieldUdemyCount Field = "udemy_count"

	// FieldStudyBulletCount is the number of published StudyBullet courses.
	FieldStudyBulletCount Field = "studybullet_count"
)

var fieldLabels = map[Field]string{
	FieldTotalCourses:     "Total Courses",
	FieldTotalCategories:  "Categories",
	FieldTotalLanguages:   "Languages",
	FieldLastAdded:        "Last Added",
	FieldUdemyCount:       "UdemyFreebies",
	FieldStudyBulletCount: "StudyBullet",
}

// Fields returns every displayed field in widget order.
// The returned slice is a fresh copy.
func Fields() []Field {
	return []Field{
		FieldTotalCourses,
		FieldTotalCategories,
		FieldTotalLanguages,
		FieldLastAdded,
		FieldUdemyCount,
		FieldStudyBulletCount,
	}
}

// Label returns the widget label for the field, or the raw key for an
// unknown field.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// String implements fmt.Stringer.
func (f Field) String() string {
	return string(f)
}

// IsSource reports whether the field is a per-source course count. The widget
// groups these under a separate "sources" section.
func (f Field) IsSource() bool {
	return f == FieldUdemyCount || f == FieldStudyBulletCount
}

// Snapshot is one fetched set of statistic values rendered together.
//
// Values holds the display text per field. Fields that were missing or null
// in the response are absent, and rendering leaves them untouched.
type Snapshot struct {
	Values map[Field]string

	// ServerTime is the response's "timestamp", zero if absent or unparseable.
	ServerTime time.Time
}

// Value returns the text for a field and whether the snapshot carries it.
func (s Snapshot) Value(f Field) (string, bool) {
	v, ok := s.Values[f]
	return v, ok
}

// serverTimeLayouts covers RFC 3339 and Python's naive isoformat output.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// DecodeSnapshot parses a /api/live-stats response body.
//
// Numbers, strings and booleans are converted to their display text. Numbers
// are written without exponent or trailing zeros. Unknown keys are ignored.
func DecodeSnapshot(body []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode live stats: %w", err)
	}
	if raw == nil {
		return Snapshot{}, errors.New("failed to decode live stats: body is not a JSON object")
	}

	snap := Snapshot{Values: make(map[Field]string, len(fieldLabels))}
	for _, f := range Fields() {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		text, present, err := rawToText(msg)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode live stats field %q: %w", f, err)
		}
		if present {
			snap.Values[f] = text
		}
	}

	if msg, ok := raw["timestamp"]; ok {
		var ts string
		if err := json.Unmarshal(msg, &ts); err == nil {
			snap.ServerTime = parseServerTime(ts)
		}
	}

	return snap, nil
}

// rawToText converts a single JSON value to display text.
// present is false for null.
func rawToText(msg json.RawMessage) (text string, present bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}

	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true, nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", false, fmt.Errorf("invalid number %s", x)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value %s", string(msg))
	}
}

func parseServerTime(s string) time.Time {
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
