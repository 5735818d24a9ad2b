package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"incidentflow/internal/backend"
	"incidentflow/internal/dashboard"
	"incidentflow/internal/httpx"
	"incidentflow/internal/notify"
	"incidentflow/internal/storage/sqlite"
)

func TestStartDisabledWithoutSchedule(t *testing.T) {
	if Start("", nil, nil, "", &notify.Notifier{}, dashboard.Filter{}) {
		t.Fatal("empty schedule must disable the scheduler")
	}
	if Start("not a cron line", nil, nil, "", &notify.Notifier{}, dashboard.Filter{}) {
		t.Fatal("invalid schedule must disable the scheduler")
	}
}

func TestRefreshWritesSnapshotWithSavedFilter(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var sawYear string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawYear = r.URL.Query().Get("year")
		w.Write([]byte(`0`))
	}))
	t.Cleanup(srv.Close)

	dashboard.SaveFilter(db, dashboard.Filter{Year: "2025"})
	agg := dashboard.New(backend.NewClient(srv.URL, httpx.Client()))
	exportDir := filepath.Join(t.TempDir(), "exports")

	Refresh(context.Background(), db, agg, exportDir, &notify.Notifier{}, dashboard.Filter{Year: "2026"})

	if sawYear != "2025" {
		t.Fatalf("refresh must use the saved filter, queried year=%s", sawYear)
	}
	history, err := sqlite.RecentSnapshots(db, 1)
	if err != nil || len(history) != 1 {
		t.Fatalf("snapshot not recorded: %v %v", history, err)
	}
	if history[0].Year != "2025" {
		t.Fatalf("unexpected snapshot scope: %+v", history[0])
	}
}
