package store

import (
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/livecounter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*MemoryStore)(nil)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	all := store.GetAll()
	require.Len(t, all, len(livecounter.Fields()))
	for i, f := range livecounter.Fields() {
		assert.Equal(t, f.String(), all[i].Field)
		assert.Equal(t, f.Label(), all[i].Label)
		assert.Equal(t, livecounter.Placeholder, all[i].Text)
		assert.False(t, all[i].Highlighted)
		assert.True(t, all[i].UpdatedAt.IsZero())
	}
	assert.True(t, all[4].Source)
	assert.False(t, all[0].Source)
	assert.False(t, store.Removed())
}

func TestMemoryStore_SetText(t *testing.T) {
	store := NewMemoryStore()
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store.now = fixedClock(at)

	store.SetText(livecounter.FieldTotalCourses, "1520")

	assert.Equal(t, "1520", store.Text(livecounter.FieldTotalCourses))
	all := store.GetAll()
	assert.Equal(t, "1520", all[0].Text)
	assert.Equal(t, at, all[0].UpdatedAt)
	assert.Equal(t, livecounter.Placeholder, all[1].Text)
}

func TestMemoryStore_UnknownField(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	store.SetText("unknown", "1")
	store.SetHighlight("unknown", true)

	assert.Equal(t, livecounter.Placeholder, store.Text("unknown"))
	assert.Len(t, ch, 0)
}

func TestMemoryStore_SubscribeReceivesUpdates(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	store.SetHighlight(livecounter.FieldLastAdded, true)
	store.SetText(livecounter.FieldLastAdded, "just now")

	ev := receive(t, ch)
	assert.Equal(t, EventUpdate, ev.Type)
	require.NotNil(t, ev.Field)
	assert.Equal(t, "last_added", ev.Field.Field)
	assert.True(t, ev.Field.Highlighted)
	assert.Equal(t, livecounter.Placeholder, ev.Field.Text)

	ev = receive(t, ch)
	assert.Equal(t, "just now", ev.Field.Text)
	assert.True(t, ev.Field.Highlighted)
}

func TestMemoryStore_HighlightUnchangedNotPublished(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	store.SetHighlight(livecounter.FieldTotalCourses, false)
	assert.Len(t, ch, 0)

	store.SetHighlight(livecounter.FieldTotalCourses, true)
	store.SetHighlight(livecounter.FieldTotalCourses, true)
	assert.Len(t, ch, 1)
}

func TestMemoryStore_EventIsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	store.SetText(livecounter.FieldTotalCourses, "1")
	store.SetText(livecounter.FieldTotalCourses, "2")

	assert.Equal(t, "1", receive(t, ch).Field.Text)
	assert.Equal(t, "2", receive(t, ch).Field.Text)
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	store.Remove()
	store.Remove()

	assert.True(t, store.Removed())
	ev := receive(t, ch)
	assert.Equal(t, EventRemoved, ev.Type)
	assert.Nil(t, ev.Field)
	assert.Len(t, ch, 0, "removed is published once")

	// writes after removal are ignored
	store.SetText(livecounter.FieldTotalCourses, "9")
	assert.Equal(t, livecounter.Placeholder, store.Text(livecounter.FieldTotalCourses))
	assert.Len(t, ch, 0)
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	go store.SetText(livecounter.FieldTotalCourses, "1")

	for _, ch := range []<-chan Event{ch1, ch2, ch3} {
		assert.Equal(t, "1", receive(t, ch).Field.Text)
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// never read
	_ = store.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			store.SetText(livecounter.FieldTotalCourses, "x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("SetText() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.SetText(livecounter.FieldTotalCourses, "1")
				store.SetHighlight(livecounter.FieldTotalCourses, j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.GetAll()
				_ = store.Text(livecounter.FieldTotalCourses)
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}
	wg.Wait()
}

func TestMemoryStore_WithCounter(t *testing.T) {
	store := NewMemoryStore()
	c, err := livecounter.New("http://127.0.0.1:1/api/live-stats", store,
		livecounter.WithHighlightDuration(20*time.Millisecond),
	)
	require.NoError(t, err)

	c.Render(livecounter.Snapshot{Values: map[livecounter.Field]string{
		livecounter.FieldLastAdded: "just now",
	}})
	assert.Equal(t, "just now", store.Text(livecounter.FieldLastAdded))
	assert.True(t, store.GetAll()[3].Highlighted)

	require.Eventually(t, func() bool {
		return !store.GetAll()[3].Highlighted
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	assert.True(t, store.Removed())
}
