package db

import (
	"context"
	"strings"
)

const upsertCourse = `
INSERT INTO courses (course_code, name, teacher)
VALUES (?, ?, ?)
ON CONFLICT (course_code, teacher) DO UPDATE SET name = excluded.name
RETURNING id
`

type UpsertCourseParams struct {
	CourseCode string
	Name       string
	Teacher    string
}

func (q *Queries) UpsertCourse(ctx context.Context, arg UpsertCourseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertCourse, arg.CourseCode, arg.Name, arg.Teacher)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteOccurrences = `
DELETE FROM occurrences WHERE owner = ? AND term_id = ?
`

type DeleteOccurrencesParams struct {
	Owner  string
	TermID string
}

func (q *Queries) DeleteOccurrences(ctx context.Context, arg DeleteOccurrencesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteOccurrences, arg.Owner, arg.TermID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertOccurrence = `
INSERT INTO occurrences (
    id, owner, term_id, course_id,
    week, weekday, period_start, period_count, classroom,
    starts_at, ends_at, single_week, double_week, season, note
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertOccurrence(ctx context.Context, arg Occurrence) error {
	_, err := q.db.ExecContext(ctx, insertOccurrence,
		arg.ID,
		arg.Owner,
		arg.TermID,
		arg.CourseID,
		arg.Week,
		arg.Weekday,
		arg.PeriodStart,
		arg.PeriodCount,
		arg.Classroom,
		arg.StartsAt,
		arg.EndsAt,
		arg.SingleWeek,
		arg.DoubleWeek,
		arg.Season,
		arg.Note,
	)
	return err
}

const insertSyncRun = `
INSERT INTO sync_runs (id, owner, term_id, synced_at, occurrence_count)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) InsertSyncRun(ctx context.Context, arg SyncRun) error {
	_, err := q.db.ExecContext(ctx, insertSyncRun,
		arg.ID,
		arg.Owner,
		arg.TermID,
		arg.SyncedAt,
		arg.OccurrenceCount,
	)
	return err
}

const latestSyncRun = `
SELECT id, owner, term_id, synced_at, occurrence_count FROM sync_runs
WHERE owner = ? AND term_id = ?
ORDER BY synced_at DESC, id DESC
LIMIT 1
`

type LatestSyncRunParams struct {
	Owner  string
	TermID string
}

func (q *Queries) LatestSyncRun(ctx context.Context, arg LatestSyncRunParams) (SyncRun, error) {
	row := q.db.QueryRowContext(ctx, latestSyncRun, arg.Owner, arg.TermID)
	var i SyncRun
	err := row.Scan(
		&i.ID,
		&i.Owner,
		&i.TermID,
		&i.SyncedAt,
		&i.OccurrenceCount,
	)
	return i, err
}

// ListOccurrencesParams filters occurrences, zero values do not filter.
type ListOccurrencesParams struct {
	Owner  string
	TermID string
	Season string
	// StartsAfter and EndsBefore are inclusive unix second bounds.
	StartsAfter int64
	EndsBefore  int64
	Limit       int64
}

type ListOccurrencesRow struct {
	Occurrence Occurrence
	Course     Course
}

const listOccurrences = `
SELECT
    o.id, o.owner, o.term_id, o.course_id,
    o.week, o.weekday, o.period_start, o.period_count, o.classroom,
    o.starts_at, o.ends_at, o.single_week, o.double_week, o.season, o.note,
    c.id, c.course_code, c.name, c.teacher
FROM occurrences o
JOIN courses c ON o.course_id = c.id
`

// ListOccurrences is ordered by start time, then by course code.
func (q *Queries) ListOccurrences(ctx context.Context, arg ListOccurrencesParams) ([]ListOccurrencesRow, error) {
	var where []string
	var args []any
	if arg.Owner != "" {
		where = append(where, "o.owner = ?")
		args = append(args, arg.Owner)
	}
	if arg.TermID != "" {
		where = append(where, "o.term_id = ?")
		args = append(args, arg.TermID)
	}
	if arg.Season != "" {
		where = append(where, "o.season = ?")
		args = append(args, arg.Season)
	}
	if arg.StartsAfter != 0 {
		where = append(where, "o.starts_at >= ?")
		args = append(args, arg.StartsAfter)
	}
	if arg.EndsBefore != 0 {
		where = append(where, "o.ends_at <= ?")
		args = append(args, arg.EndsBefore)
	}

	query := listOccurrences
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY o.starts_at, c.course_code, o.season\n"
	if arg.Limit > 0 {
		query += "LIMIT ?\n"
		args = append(args, arg.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOccurrencesRow
	for rows.Next() {
		var i ListOccurrencesRow
		if err := rows.Scan(
			&i.Occurrence.ID,
			&i.Occurrence.Owner,
			&i.Occurrence.TermID,
			&i.Occurrence.CourseID,
			&i.Occurrence.Week,
			&i.Occurrence.Weekday,
			&i.Occurrence.PeriodStart,
			&i.Occurrence.PeriodCount,
			&i.Occurrence.Classroom,
			&i.Occurrence.StartsAt,
			&i.Occurrence.EndsAt,
			&i.Occurrence.SingleWeek,
			&i.Occurrence.DoubleWeek,
			&i.Occurrence.Season,
			&i.Occurrence.Note,
			&i.Course.ID,
			&i.Course.CourseCode,
			&i.Course.Name,
			&i.Course.Teacher,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
