package survey

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
	"github.com/iankuys/c2c-survey-app/pkg/identity"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
	"github.com/iankuys/c2c-survey-app/pkg/redcap/emulator"
	"github.com/iankuys/c2c-survey-app/pkg/videopool"
)

const (
	testToken     = "TESTTOKEN"
	testReportID  = "99"
	testKey       = "abcd12345678"
	testKeyOther  = "efgh12345678"
	testKeyNoData = "ijkl12345678"
)

var testNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func testVideoIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%02d", i+1)
	}
	return ids
}

func testPool(n int) *videopool.Pool {
	urls := map[string]string{}
	for _, id := range testVideoIDs(n) {
		urls[id] = "https://videos.example.org/" + id + ".mp4"
	}
	return videopool.New(urls)
}

// newTestEngine wires an engine to an emulated records service. The shuffle keeps the
// sorted pool order so allocations are predictable.
func newTestEngine(t *testing.T, poolSize int, maxScreens int) (*Engine, *emulator.Store) {
	t.Helper()

	store := emulator.NewStore(testToken, records.FieldAccessKey)
	srv := httptest.NewServer(store.Handler())
	t.Cleanup(srv.Close)

	client := redcap.ClientConfig{
		URL:     srv.URL + "/",
		Token:   testToken,
		Timeout: 5 * time.Second,
	}

	mapping, err := identity.NewMapping(map[string]string{
		testKey:       "1001",
		testKeyOther:  "1002",
		testKeyNoData: "1003",
	})
	if err != nil {
		t.Fatal(err)
	}
	resolver := identity.NewResolver(mapping, records.NewEmailDirectory(client, testReportID))

	e, err := NewEngine(
		records.NewGateway(client, maxScreens),
		testPool(poolSize),
		resolver,
		accesskey.NewSanitizer(12),
		maxScreens,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.now = func() time.Time { return testNow }
	e.shuffle = func(ids []string) {}
	return e, store
}

func putRows(t *testing.T, store *emulator.Store, rows ...redcap.Record) {
	t.Helper()
	for _, r := range rows {
		if err := store.Put(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func screenRow(key string, screen int, a string, b string, completed bool) redcap.Record {
	row := redcap.Record{
		records.FieldAccessKey: key,
		records.FieldEventName: records.ScreenEvent(screen),
		records.FieldVideoA:    a,
		records.FieldVideoB:    b,
	}
	if completed {
		row[records.FieldVideoComplete] = records.StatusComplete
	}
	return row
}

// seedScreens persists maxScreens screens with pairs (v01,v02), (v03,v04), ... and marks
// the first completed ones as done.
func seedScreens(t *testing.T, store *emulator.Store, key string, maxScreens int, completed int) {
	t.Helper()
	ids := testVideoIDs(2 * maxScreens)
	for s := 1; s <= maxScreens; s++ {
		putRows(t, store, screenRow(key, s, ids[2*s-2], ids[2*s-1], s <= completed))
	}
}

func finishedRows(key string, skipped bool) redcap.Record {
	if skipped {
		return redcap.Record{records.FieldAccessKey: key, records.FieldEventName: records.EventStart, records.FieldSkipped: records.SkippedYes}
	}
	return redcap.Record{records.FieldAccessKey: key, records.FieldEventName: records.EventOutro, records.FieldOutroComplete: records.StatusComplete}
}

func mustGet(t *testing.T, store *emulator.Store, key string, event string) redcap.Record {
	t.Helper()
	row, ok := store.Get(key, event)
	if !ok {
		t.Fatalf("no record for %s / %s", key, event)
	}
	return row
}
