package zdbk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"timetable-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const timetableBody = `{"kbList":[` +
	`{"kcb":"高等数学<br>秋冬{第1-8周|2节/周}<br>张三<br>紫金港东1A-101zwf","xqj":1,"djj":"1","skcd":"2","xkkh":"(2025-2026-1)-211G0210-0094081-1","xxq":"秋冬"},` +
	`{"kcb":"线性代数<br>春夏{第1-8周}<br>李四<br>紫金港西1-202","xqj":"3","djj":3,"xkkh":"(2024-2025-2)-061B9090-0094081-1","xxq":"春夏"},` +
	`{"kcb":"大学物理<br>春{第1-8周}<br>王五<br>玉泉教7-305","xqj":"2","djj":"6","xxq":"春"},` +
	`{"kcb":"体育<br>秋{第2-8周}<br>赵六<br>紫金港风雨操场","xqj":"5","djj":"3"}` +
	`],"xh":"3200100000","xsxx":{}}`

func TestExtractEntries(t *testing.T) {
	entries, err := ExtractEntries(timetableBody)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	label, ok := entries[0].Label.Value()
	require.True(t, ok)
	require.True(t, strings.HasPrefix(label, "高等数学<br>"))

	weekday, ok := entries[0].Weekday.Int()
	require.True(t, ok)
	require.Equal(t, 1, weekday)

	start, ok := entries[1].StartPeriod.Int()
	require.True(t, ok)
	require.Equal(t, 3, start)

	_, ok = entries[1].Duration.Value()
	require.False(t, ok)
	_, ok = entries[3].TermLabel.Value()
	require.False(t, ok)
}

func TestExtractEntriesMissingList(t *testing.T) {
	_, err := ExtractEntries(`<html>JSESSIONID=abcdef please log in</html>`)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	require.NotEmpty(t, fetchErr.Snippet)
	require.NotContains(t, fetchErr.Snippet, "abcdef")

	_, err = ExtractEntries(`{"kbList":["not an entry"],"xh":"1"}`)
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
}

func TestExtractEntriesMistypedField(t *testing.T) {
	body := `{"kbList":[` +
		`{"kcb":"高等数学<br>秋冬{第1-8周}","xqj":1,"djj":"1","skcd":2,"xxq":"秋冬"},` +
		`{"kcb":"线性代数","xqj":"3","djj":{"n":3},"skcd":false,"xkkh":["x"],"xxq":null}` +
		`],"xh":"3200100000"}`

	entries, err := ExtractEntries(body)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	duration, ok := entries[0].Duration.Int()
	require.True(t, ok)
	require.Equal(t, 2, duration)

	label, ok := entries[1].Label.Value()
	require.True(t, ok)
	require.Equal(t, "线性代数", label)
	weekday, ok := entries[1].Weekday.Int()
	require.True(t, ok)
	require.Equal(t, 3, weekday)

	require.Nil(t, entries[1].StartPeriod)
	require.Nil(t, entries[1].Duration)
	require.Nil(t, entries[1].Key)
	require.Nil(t, entries[1].TermLabel)
}

func TestFilterEntries(t *testing.T) {
	entries, err := ExtractEntries(timetableBody)
	require.NoError(t, err)

	autumn := FilterEntries(entries, Term{StartYear: 2025, Half: 1})
	require.Len(t, autumn, 2)
	require.Equal(t, entries[0], autumn[0])
	require.Equal(t, entries[3], autumn[1])

	spring := FilterEntries(entries, Term{StartYear: 2025, Half: 2})
	// the first entry names 2025-2026-1, the second 2024-2025-2 is dropped by its
	// key alone even though its 春夏 label matches the half
	require.Len(t, spring, 2)
	require.Equal(t, entries[2], spring[0])
	require.Equal(t, entries[3], spring[1])
}

type fakePortal struct {
	status int
	body   string
}

func (p fakePortal) handler(t testing.TB) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(timetablePath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "2025", r.PostForm.Get("xnm"))
		require.Equal(t, "3", r.PostForm.Get("xqm"))

		session, err := r.Cookie(SessionCookie)
		require.NoError(t, err)
		require.Equal(t, "session-1", session.Value)
		route, err := r.Cookie(RouteCookie)
		require.NoError(t, err)
		require.Equal(t, "route-1", route.Value)

		if p.status != 0 {
			w.WriteHeader(p.status)
		}
		fmt.Fprint(w, p.body)
	})
	return mux
}

func newPortalClient(t testing.TB, portal fakePortal, tel telemetry.API) *Client {
	server := httptest.NewServer(portal.handler(t))
	t.Cleanup(server.Close)
	return NewClient(Options{PortalBaseUrl: server.URL}, tel)
}

var testSession = Session{SessionId: "session-1", Route: "route-1"}

func TestFetchTimetable(t *testing.T) {
	tel := &telemetry.Recorder{}
	client := newPortalClient(t, fakePortal{body: timetableBody}, tel)

	entries, err := client.FetchTimetable(context.Background(), testSession, "2025-2026-1", false)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	entries, err = client.FetchTimetable(context.Background(), testSession, "2025-2026-1", true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Len(t, tel.Find("debug", "zdbk_scraper: client.filter"), 1)
}

func TestFetchTimetableBadStatus(t *testing.T) {
	client := newPortalClient(t, fakePortal{
		status: http.StatusInternalServerError,
		body:   "<html>internal error</html>",
	}, telemetry.SlogAPI{})

	_, err := client.FetchTimetable(context.Background(), testSession, "2025-2026-1", true)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	require.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	require.Contains(t, fetchErr.Snippet, "internal error")
}

func TestFetchTimetableExpiredSession(t *testing.T) {
	client := newPortalClient(t, fakePortal{
		body: `<html><form action="/jwglxt/xtgl/login_slogin.html"></form></html>`,
	}, telemetry.SlogAPI{})

	_, err := client.FetchTimetable(context.Background(), testSession, "2025-2026-1", true)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	require.Equal(t, "portal session expired", fetchErr.Reason)
}

func TestFetchTimetableInvalidTerm(t *testing.T) {
	client := NewClient(Options{PortalBaseUrl: "http://127.0.0.1:1"}, telemetry.SlogAPI{})
	_, err := client.FetchTimetable(context.Background(), testSession, "2025", true)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
}
