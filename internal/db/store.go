package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/chrono"
	"timetable-backend/internal/timetable"

	"github.com/oklog/ulid/v2"
)

// Store keeps the occurrences of every owner and term, each sync replaces the
// previous occurrences of that owner and term as a whole.
type Store struct {
	qry     *Queries
	makeTx  MakeTx
	clock   chrono.API
	// shared by concurrent syncs, so it has to be the locked reader
	entropy *ulid.LockedMonotonicReader
}

func NewStore(db *sql.DB, clock chrono.API) *Store {
	assert.NotNil(db)
	assert.NotNil(clock)
	return &Store{
		qry:     New(db),
		makeTx:  NewMakeTx(db),
		clock:   clock,
		entropy: &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(clock.Now().UnixNano())), 0),
		},
	}
}

func (s *Store) newId(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// Run describes a completed sync.
type Run struct {
	Id          string
	Owner       string
	TermId      string
	SyncedAt    time.Time
	Occurrences int
}

func (s *Store) runFromRow(row SyncRun) Run {
	return Run{
		Id:          row.ID,
		Owner:       row.Owner,
		TermId:      row.TermID,
		SyncedAt:    time.Unix(row.SyncedAt, 0).In(s.clock.Location()),
		Occurrences: int(row.OccurrenceCount),
	}
}

// ReplaceOccurrences stores occurrences as the timetable of owner in the given
// term, removing whatever was stored for them before.
func (s *Store) ReplaceOccurrences(ctx context.Context, owner, termId string, occurrences []timetable.Occurrence) (Run, error) {
	now := s.clock.Now()

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return Run{}, err
	}
	defer discard()

	_, err = tx.DeleteOccurrences(ctx, DeleteOccurrencesParams{
		Owner:  owner,
		TermID: termId,
	})
	if err != nil {
		return Run{}, fmt.Errorf("delete occurrences: %w", err)
	}

	courseIds := map[timetable.Course]int64{}
	for _, occ := range occurrences {
		courseId, ok := courseIds[occ.Course]
		if !ok {
			courseId, err = tx.UpsertCourse(ctx, UpsertCourseParams{
				CourseCode: occ.Course.Code,
				Name:       occ.Course.Name,
				Teacher:    occ.Course.Teacher,
			})
			if err != nil {
				return Run{}, fmt.Errorf("upsert course %s: %w", occ.Course.Code, err)
			}
			courseIds[occ.Course] = courseId
		}

		err = tx.InsertOccurrence(ctx, Occurrence{
			ID:          s.newId(now),
			Owner:       owner,
			TermID:      termId,
			CourseID:    courseId,
			Week:        int64(occ.Week),
			Weekday:     int64(occ.Weekday),
			PeriodStart: int64(occ.PeriodStart),
			PeriodCount: int64(occ.PeriodCount),
			Classroom:   occ.Classroom,
			StartsAt:    occ.StartsAt.Unix(),
			EndsAt:      occ.EndsAt.Unix(),
			SingleWeek:  occ.SingleWeek,
			DoubleWeek:  occ.DoubleWeek,
			Season:      string(occ.Season),
			Note:        occ.Note,
		})
		if err != nil {
			return Run{}, fmt.Errorf("insert occurrence: %w", err)
		}
	}

	run := SyncRun{
		ID:              s.newId(now),
		Owner:           owner,
		TermID:          termId,
		SyncedAt:        now.Unix(),
		OccurrenceCount: int64(len(occurrences)),
	}
	err = tx.InsertSyncRun(ctx, run)
	if err != nil {
		return Run{}, fmt.Errorf("insert sync run: %w", err)
	}

	err = commit()
	if err != nil {
		return Run{}, err
	}
	return s.runFromRow(run), nil
}

// LastRun returns the latest sync of owner in the term, ok is false if there
// never was one.
func (s *Store) LastRun(ctx context.Context, owner, termId string) (run Run, ok bool, err error) {
	row, err := s.qry.LatestSyncRun(ctx, LatestSyncRunParams{
		Owner:  owner,
		TermID: termId,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return s.runFromRow(row), true, nil
}

// Filter selects stored occurrences, zero values match everything. From and To
// bound the occurrence as a whole.
type Filter struct {
	Owner  string
	TermId string
	Season timetable.Season
	From   time.Time
	To     time.Time
	Limit  int
}

// ListOccurrences returns the stored occurrences matching filter ordered by start time.
func (s *Store) ListOccurrences(ctx context.Context, filter Filter) ([]timetable.Occurrence, error) {
	params := ListOccurrencesParams{
		Owner:  filter.Owner,
		TermID: filter.TermId,
		Season: string(filter.Season),
		Limit:  int64(filter.Limit),
	}
	if !filter.From.IsZero() {
		params.StartsAfter = filter.From.Unix()
	}
	if !filter.To.IsZero() {
		params.EndsBefore = filter.To.Unix()
	}

	rows, err := s.qry.ListOccurrences(ctx, params)
	if err != nil {
		return nil, err
	}

	location := s.clock.Location()
	out := make([]timetable.Occurrence, len(rows))
	for i, row := range rows {
		out[i] = timetable.Occurrence{
			Course: timetable.Course{
				Code:    row.Course.CourseCode,
				Name:    row.Course.Name,
				Teacher: row.Course.Teacher,
			},
			Week:        int(row.Occurrence.Week),
			Weekday:     int(row.Occurrence.Weekday),
			PeriodStart: int(row.Occurrence.PeriodStart),
			PeriodCount: int(row.Occurrence.PeriodCount),
			Classroom:   row.Occurrence.Classroom,
			StartsAt:    time.Unix(row.Occurrence.StartsAt, 0).In(location),
			EndsAt:      time.Unix(row.Occurrence.EndsAt, 0).In(location),
			SingleWeek:  row.Occurrence.SingleWeek,
			DoubleWeek:  row.Occurrence.DoubleWeek,
			Season:      timetable.Season(row.Occurrence.Season),
			TermId:      row.Occurrence.TermID,
			Note:        row.Occurrence.Note,
		}
	}
	return out, nil
}
