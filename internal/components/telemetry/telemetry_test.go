package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("zdbk_scraper", rec)

	tel.ReportBroken("client.fetch-timetable", "boom")
	tel.ReportWarning("client.exchange")
	tel.ReportDebug("client.filter", 2)
	tel.ReportCount("client.fetch-timetable", 4)

	broken := rec.Find("broken", "zdbk_scraper: client.fetch-timetable")
	require.Len(t, broken, 1)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	require.Len(t, rec.Find("warning", "zdbk_scraper: client.exchange"), 1)
	require.Len(t, rec.Find("debug", "zdbk_scraper: client.filter"), 1)

	counts := rec.Find("count", "zdbk_scraper: client.fetch-timetable")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(4)}, counts[0].Params)

	require.Empty(t, rec.Find("broken", "client.fetch-timetable"))
}

func TestNestedScopes(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("inner", NewScopedAPI("outer", rec))
	tel.ReportWarning("x")
	require.Len(t, rec.Find("warning", "outer: inner: x"), 1)
}
