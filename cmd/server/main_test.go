package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubnetdef/injectengine/internal/config"
	"github.com/ubnetdef/injectengine/internal/schedule"
	"github.com/ubnetdef/injectengine/internal/testutil"
)

func setupServer(t *testing.T) *gin.Engine {
	store := testutil.NewMemStore()
	testutil.Seed(store)
	store.AddUser(t, 7, "blue1", "changeme", testutil.GroupBlue)
	store.AddUser(t, 8, "white1", "changeme", testutil.GroupStaff)
	store.AddUser(t, 9, "admin", "changeme", testutil.GroupAdmin)
	resolver := testutil.NewResolver(t, store, testutil.CompetitionStart, testutil.Now)

	cfg := &config.Config{
		JWTSecret:  testutil.JWTSecret,
		GroupBlue:  testutil.GroupBlue,
		GroupStaff: testutil.GroupStaff,
		GroupAdmin: testutil.GroupAdmin,
	}
	r := testutil.NewRouter()
	RegisterRoutes(r, cfg, store, resolver)
	return r
}

func login(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := testutil.Do(r, http.MethodPost, "/api/auth/login", "", []byte(`{"username":"`+username+`","password":"changeme"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["token"]
}

func TestLoginAndBrowseInjects(t *testing.T) {
	r := setupServer(t)

	w := testutil.Do(r, http.MethodGet, "/api/injects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "expected unauthorized without token")

	token := login(t, r, "blue1")
	w = testutil.Do(r, http.MethodGet, "/api/injects", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(r, http.MethodGet, "/api/auth/current_profile", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGates(t *testing.T) {
	r := setupServer(t)
	blue := login(t, r, "blue1")
	staff := login(t, r, "white1")
	admin := login(t, r, "admin")

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/staff/overview", blue, http.StatusForbidden},
		{"/api/staff/overview", staff, http.StatusOK},
		{"/api/staff/overview", admin, http.StatusOK},
		{"/api/admin/schedules", blue, http.StatusForbidden},
		{"/api/admin/schedules", staff, http.StatusForbidden},
		{"/api/admin/schedules", admin, http.StatusOK},
		{"/api/admin/schedules/bounds", admin, http.StatusOK},
		{"/api/injects/3?show_expired=1", blue, http.StatusNotFound},
		{"/api/injects/3?show_expired=1", staff, http.StatusOK},
		{"/api/injects/3?show_expired=1", admin, http.StatusOK},
	}
	for _, tc := range cases {
		w := testutil.Do(r, http.MethodGet, tc.path, tc.token, nil)
		assert.Equal(t, tc.want, w.Code, tc.path)
	}
}

func TestHealthz(t *testing.T) {
	r := setupServer(t)
	w := testutil.Do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompetitionStartFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("environment wins", func(t *testing.T) {
		store := testutil.NewMemStore()
		store.Config[competitionStartKey] = "1600000000"
		cfg := &config.Config{CompetitionStart: time.Unix(1700000000, 0)}

		got, err := competitionStart(ctx, cfg, store)
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), got.Unix())
	})

	t.Run("config table", func(t *testing.T) {
		store := testutil.NewMemStore()
		store.Config[competitionStartKey] = "1600000000"

		got, err := competitionStart(ctx, &config.Config{}, store)
		require.NoError(t, err)
		assert.Equal(t, int64(1600000000), got.Unix())
	})

	t.Run("epoch zero is accepted end to end", func(t *testing.T) {
		store := testutil.NewMemStore()
		store.Config[competitionStartKey] = "0"

		got, err := competitionStart(ctx, &config.Config{}, store)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Unix())

		_, err = schedule.NewResolver(store, store, schedule.Options{CompetitionStart: got})
		assert.NoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := competitionStart(ctx, &config.Config{}, testutil.NewMemStore())
		assert.ErrorIs(t, err, schedule.ErrCompetitionStartMissing)
	})
}
