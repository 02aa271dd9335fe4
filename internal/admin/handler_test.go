package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/internal/waitlist"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeExporter struct {
	key  string
	body string
	err  error
}

func (f *fakeExporter) UploadExport(_ context.Context, key string, body []byte) (string, time.Time, error) {
	f.key, f.body = key, string(body)
	return "https://s3.example/" + key, time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC), f.err
}

type fakeQueue struct{ requestedBy string }

func (q *fakeQueue) EnqueueReconcile(_ context.Context, requestedBy string) (string, error) {
	q.requestedBy = requestedBy
	return "job-1", nil
}

type fixture struct {
	router *gin.Engine
	regs   *registrations.Service
	wl     *waitlist.Service
	deps   Deps
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	store := kvstore.NewMemory()
	regs := registrations.NewService(registrations.NewRepository(store), nil)
	wl := waitlist.NewService(waitlist.NewRepository(store), nil, nil)
	facade := NewFacade(regs, time.Minute)
	regs.OnChange(facade.Invalidate)

	deps := Deps{Facade: facade, Waitlist: wl, Reconciler: regs, Location: time.UTC}
	if mutate != nil {
		mutate(&deps)
	}
	h := NewHandler(deps, nil)
	h.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	h.Register(r)
	return &fixture{router: r, regs: regs, wl: wl, deps: deps}
}

func (f *fixture) signup(t *testing.T, first, email, country string) string {
	t.Helper()
	id, err := f.regs.Create(context.Background(), registrations.SignupRequest{
		FirstName: first, LastName: "Teste", Email: email, Country: country,
		Phone: "11 99999-9999", Specialty: "tarot", Experience: "beginner",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) post(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func TestListRegistrationsFiltersAndCounts(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(t, "Maria", "maria@example.com", "BR")
	f.signup(t, "Ana", "ana@example.com", "PT")

	rec := f.get("/admin/registrations?country=BR")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Success       bool `json:"success"`
		Count         int  `json:"count"`
		Registrations []struct {
			FirstName string `json:"firstName"`
		} `json:"registrations"`
		Stats Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Maria", resp.Registrations[0].FirstName)
	assert.Equal(t, 2, resp.Stats.Total)

	assert.Equal(t, http.StatusBadRequest, f.get("/admin/registrations?sort=random").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/admin/registrations?tz=Mars/Olympus").Code)
}

func TestSnapshotInvalidatedByWrites(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(t, "Maria", "maria@example.com", "BR")
	require.Contains(t, f.get("/admin/stats").Body.String(), `"total":1`)

	f.signup(t, "Ana", "ana@example.com", "PT")
	assert.Contains(t, f.get("/admin/stats").Body.String(), `"total":2`)
}

func TestExportRegistrationsCSV(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(t, "Maria", "maria@example.com", "BR")

	rec := f.get("/admin/registrations/export?tz=America/Sao_Paulo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="guias-2026-10-19.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Body.String(), `"Maria","Teste","maria@example.com","BR"`)
}

func TestArchiveRegistrations(t *testing.T) {
	t.Run("disabled without exporter", func(t *testing.T) {
		f := newFixture(t, nil)
		assert.Equal(t, http.StatusServiceUnavailable, f.post("/admin/registrations/export").Code)
	})

	t.Run("uploads csv", func(t *testing.T) {
		exp := &fakeExporter{}
		f := newFixture(t, func(d *Deps) { d.Exporter = exp })
		f.signup(t, "Maria", "maria@example.com", "BR")

		rec := f.post("/admin/registrations/export")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, strings.HasPrefix(exp.key, "exports/registrations/2026-10-19-"))
		assert.Contains(t, exp.body, "maria@example.com")
		var resp struct {
			Key string `json:"key"`
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, exp.key, resp.Key)
		assert.Equal(t, "https://s3.example/"+exp.key, resp.URL)
	})

	t.Run("upload failure is 500", func(t *testing.T) {
		f := newFixture(t, func(d *Deps) { d.Exporter = &fakeExporter{err: errors.New("access denied")} })
		assert.Equal(t, http.StatusInternalServerError, f.post("/admin/registrations/export").Code)
	})
}

func TestWaitlistRoutes(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.wl.Subscribe(context.Background(), "a@b")
	require.NoError(t, err)

	rec := f.get("/admin/waitlist")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = f.get("/admin/waitlist/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="waitlist-2026-10-19.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\"Email\",\"Data\"\n\"a@b\","))
}

func TestReconcileRoute(t *testing.T) {
	t.Run("inline without queue", func(t *testing.T) {
		f := newFixture(t, nil)
		f.signup(t, "Maria", "maria@example.com", "BR")
		rec := f.post("/admin/index/reconcile")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Report registrations.ReconcileReport `json:"report"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, registrations.ReconcileReport{Registrations: 1, IndexEntries: 1}, resp.Report)
	})

	t.Run("queued when a queue is configured", func(t *testing.T) {
		q := &fakeQueue{}
		f := newFixture(t, func(d *Deps) { d.Queue = q })
		rec := f.post("/admin/index/reconcile")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"queued":true,"jobId":"job-1"}`, rec.Body.String())
	})
}
