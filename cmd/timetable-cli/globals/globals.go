package globals

import (
	"context"
	"timetable-backend/internal/components/chrono"
	"timetable-backend/internal/components/telemetry"
	"timetable-backend/internal/db"
	"timetable-backend/internal/ingest"
	"timetable-backend/internal/timetable"
)

type key struct{}

type Value struct {
	Tel         telemetry.API
	Clock       chrono.API
	Calendar    *timetable.Calendar
	Ingestor    *ingest.Ingestor
	Credentials ingest.Credentials
	// OpenStore opens the database, the caller owns the returned close function.
	OpenStore func() (store *db.Store, close func() error, err error)
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
