package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDaily(t *testing.T) {
	d, err := ParseDaily("19:30")
	require.NoError(t, err)
	assert.Equal(t, Daily{Hour: 19, Minute: 30}, d)
	assert.Equal(t, "19:30", d.String())

	_, err = ParseDaily("7pm")
	assert.Error(t, err)
}

func TestDaily_NextAndLast(t *testing.T) {
	cutoff := Daily{Hour: 19}
	loc := time.UTC

	before := time.Date(2026, 5, 10, 18, 0, 0, 0, loc)
	after := time.Date(2026, 5, 10, 20, 0, 0, 0, loc)
	exact := time.Date(2026, 5, 10, 19, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2026, 5, 10, 19, 0, 0, 0, loc), cutoff.Next(before, loc))
	assert.Equal(t, time.Date(2026, 5, 11, 19, 0, 0, 0, loc), cutoff.Next(after, loc))
	assert.Equal(t, time.Date(2026, 5, 11, 19, 0, 0, 0, loc), cutoff.Next(exact, loc))

	assert.Equal(t, time.Date(2026, 5, 9, 19, 0, 0, 0, loc), cutoff.Last(before, loc))
	assert.Equal(t, time.Date(2026, 5, 10, 19, 0, 0, 0, loc), cutoff.Last(after, loc))
	assert.Equal(t, exact, cutoff.Last(exact, loc))
}

func TestDaily_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 16:00 UTC is 21:00 local, already past a 19:00 local cutoff.
	now := time.Date(2026, 5, 10, 16, 0, 0, 0, time.UTC)

	next := Daily{Hour: 19}.Next(now, loc)
	assert.Equal(t, time.Date(2026, 5, 11, 19, 0, 0, 0, loc), next)
}

func TestFake_AfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	ch := f.After(time.Hour)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	f.Advance(30 * time.Minute)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	f.Advance(30 * time.Minute)
	select {
	case got := <-ch:
		assert.Equal(t, start.Add(time.Hour), got)
	default:
		t.Fatal("did not fire at deadline")
	}
}

func TestFake_BlockUntil(t *testing.T) {
	f := NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	done := make(chan struct{})
	go func() {
		<-f.After(time.Minute)
		close(done)
	}()

	f.BlockUntil(1)
	f.Advance(time.Minute)
	<-done
}

func TestCivilDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	// 03:00 UTC on the 10th is still the evening of the 9th at UTC-8.
	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), CivilDate(now, loc))

	noon := Daily{Hour: 12}.OnDate(time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2026, 5, 9, 20, 0, 0, 0, time.UTC), noon.UTC())
}
