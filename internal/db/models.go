package db

type Course struct {
	ID         int64
	CourseCode string
	Name       string
	Teacher    string
}

type Occurrence struct {
	ID          string
	Owner       string
	TermID      string
	CourseID    int64
	Week        int64
	Weekday     int64
	PeriodStart int64
	PeriodCount int64
	Classroom   string
	StartsAt    int64
	EndsAt      int64
	SingleWeek  bool
	DoubleWeek  bool
	Season      string
	Note        string
}

type SyncRun struct {
	ID              string
	Owner           string
	TermID          string
	SyncedAt        int64
	OccurrenceCount int64
}
