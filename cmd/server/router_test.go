package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystik-app/backend/internal/admin"
	"github.com/mystik-app/backend/internal/auth"
	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/internal/metrics"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/internal/waitlist"
	"github.com/mystik-app/backend/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := kvstore.NewMemory()
	m := metrics.New()
	regs := registrations.NewService(registrations.NewRepository(store), nil, registrations.WithMetrics(m))
	wl := waitlist.NewService(waitlist.NewRepository(store), m, nil)
	jwt := auth.NewJWTService("test-secret")
	hash, err := utils.HashPassword("s3nha")
	require.NoError(t, err)
	facade := admin.NewFacade(regs, time.Minute)
	regs.OnChange(facade.Invalidate)

	router := newRouter(routerDeps{
		JWT:           jwt,
		Metrics:       m,
		Registrations: registrations.NewHandler(regs, nil),
		Waitlist:      waitlist.NewHandler(wl, nil),
		Auth: auth.NewHandler(jwt, auth.AdminCredentials{
			Email: "admin@mystikapp.com", PasswordHash: hash, TokenTTL: time.Hour,
		}, nil),
		Admin:          admin.NewHandler(admin.Deps{Facade: facade, Waitlist: wl, Reconciler: regs}, nil),
		CORSOrigins:    "*",
		RequestTimeout: 15 * time.Second,
	}, nil)
	return &testServer{router: router, jwt: jwt}
}

func (s *testServer) key(t *testing.T, role models.Role) string {
	t.Helper()
	token, _, err := s.jwt.Generate(role, "test", 0)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthRequiresKey(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/health", "", nil).Code)

	rec := s.do(http.MethodGet, "/health", s.key(t, models.RoleAnon), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"status":"ok"}`, rec.Body.String())
}

func TestPublicFlowWithAnonKey(t *testing.T) {
	s := newTestServer(t)
	anon := s.key(t, models.RoleAnon)

	rec := s.do(http.MethodPost, "/medium-signup", anon, map[string]string{
		"firstName": "Maria", "lastName": "Silva", "email": "maria@example.com", "country": "BR",
		"phone": "11999999999", "specialty": "tarot", "experience": "professional",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/medium-registrations", anon, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = s.do(http.MethodPost, "/waitlist", anon, map[string]string{"email": "a@b"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"accepted":true}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/waitlist", anon, map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/stats", s.key(t, models.RoleAnon), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/stats", s.key(t, models.RoleServiceRole), nil).Code)

	rec := s.do(http.MethodPost, "/admin/login", s.key(t, models.RoleAnon), map[string]string{
		"email": "admin@mystikapp.com", "password": "s3nha",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = s.do(http.MethodGet, "/admin/registrations", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestMetricsIsPublic(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", s.key(t, models.RoleAnon), nil)

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mystik_")
}

func TestPreflightWithoutKey(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodOptions, "/medium-signup", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
