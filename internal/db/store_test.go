package db

import (
	"context"
	"sync"
	"testing"
	"time"
	"timetable-backend/internal/components/chrono"
	"timetable-backend/internal/timetable"
	"timetable-backend/pkg/migrations"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB) (*Store, *chrono.FixedImpl) {
	std, err := chrono.NewStandardImpl(chrono.DefaultLocation)
	require.NoError(t, err)
	clock := chrono.NewFixedImpl(time.Date(2025, 9, 1, 12, 0, 0, 0, std.Location()))

	sqldb, err := migrations.OpenAndMigrateDB(Schema, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	return NewStore(sqldb, clock), clock
}

func occurrence(loc *time.Location, code string, season timetable.Season, day, hour int) timetable.Occurrence {
	start := time.Date(2025, 9, day, hour, 0, 0, 0, loc)
	return timetable.Occurrence{
		Course: timetable.Course{
			Code:    code,
			Name:    "course " + code,
			Teacher: "张三",
		},
		Week:        1,
		Weekday:     int(start.Weekday()),
		PeriodStart: 1,
		PeriodCount: 1,
		Classroom:   "紫金港东1A-101",
		StartsAt:    start,
		EndsAt:      start.Add(45 * time.Minute),
		SingleWeek:  true,
		Season:      season,
		TermId:      "2025-2026-1",
		Note:        "2026年01月15日(14:00-16:00)",
	}
}

func TestReplaceAndList(t *testing.T) {
	store, clock := newTestStore(t)
	loc := clock.Location()
	ctx := context.Background()

	occurrences := []timetable.Occurrence{
		occurrence(loc, "B", timetable.SeasonAutumn, 16, 10),
		occurrence(loc, "A", timetable.SeasonAutumn, 15, 8),
		occurrence(loc, "A", timetable.SeasonWinter, 17, 8),
	}
	run, err := store.ReplaceOccurrences(ctx, "alice", "2025-2026-1", occurrences)
	require.NoError(t, err)
	require.Equal(t, 3, run.Occurrences)
	require.NotEmpty(t, run.Id)

	listed, err := store.ListOccurrences(ctx, Filter{Owner: "alice"})
	require.NoError(t, err)
	expected := []timetable.Occurrence{occurrences[1], occurrences[0], occurrences[2]}
	require.Empty(t, cmp.Diff(expected, listed))

	winter, err := store.ListOccurrences(ctx, Filter{Owner: "alice", Season: timetable.SeasonWinter})
	require.NoError(t, err)
	require.Len(t, winter, 1)
	require.Equal(t, "A", winter[0].Course.Code)

	ranged, err := store.ListOccurrences(ctx, Filter{
		Owner: "alice",
		From:  time.Date(2025, 9, 16, 0, 0, 0, 0, loc),
		To:    time.Date(2025, 9, 16, 23, 59, 0, 0, loc),
	})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "B", ranged[0].Course.Code)

	limited, err := store.ListOccurrences(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)

	other, err := store.ListOccurrences(ctx, Filter{Owner: "bob"})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestReplaceIsIdempotent(t *testing.T) {
	store, clock := newTestStore(t)
	loc := clock.Location()
	ctx := context.Background()

	occurrences := []timetable.Occurrence{
		occurrence(loc, "A", timetable.SeasonAutumn, 15, 8),
		occurrence(loc, "B", timetable.SeasonAutumn, 16, 10),
	}
	_, err := store.ReplaceOccurrences(ctx, "alice", "2025-2026-1", occurrences)
	require.NoError(t, err)
	_, err = store.ReplaceOccurrences(ctx, "bob", "2025-2026-1", occurrences[:1])
	require.NoError(t, err)

	clock.Advance(time.Hour)
	run, err := store.ReplaceOccurrences(ctx, "alice", "2025-2026-1", occurrences)
	require.NoError(t, err)

	listed, err := store.ListOccurrences(ctx, Filter{Owner: "alice", TermId: "2025-2026-1"})
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(occurrences, listed))

	bob, err := store.ListOccurrences(ctx, Filter{Owner: "bob"})
	require.NoError(t, err)
	require.Len(t, bob, 1)

	last, ok, err := store.LastRun(ctx, "alice", "2025-2026-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, run, last)
	require.True(t, clock.Now().Equal(last.SyncedAt))

	_, ok, err = store.LastRun(ctx, "carol", "2025-2026-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReplaceWithNothing(t *testing.T) {
	store, clock := newTestStore(t)
	loc := clock.Location()
	ctx := context.Background()

	_, err := store.ReplaceOccurrences(ctx, "alice", "2025-2026-1", []timetable.Occurrence{
		occurrence(loc, "A", timetable.SeasonAutumn, 15, 8),
	})
	require.NoError(t, err)
	run, err := store.ReplaceOccurrences(ctx, "alice", "2025-2026-1", nil)
	require.NoError(t, err)
	require.Equal(t, 0, run.Occurrences)

	listed, err := store.ListOccurrences(ctx, Filter{Owner: "alice"})
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestNewIdConcurrent(t *testing.T) {
	store, clock := newTestStore(t)
	now := clock.Now()

	const workers, perWorker = 8, 200
	ids := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- store.newId(now)
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, workers*perWorker)
}
