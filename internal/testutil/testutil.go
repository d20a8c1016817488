package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/http/middleware"
	"github.com/ubnetdef/injectengine/internal/model"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

// JWTSecret signs tokens issued by Token.
const JWTSecret = "test-secret"

// MemStore is an in-memory db.Store. Time predicates in ScheduleFilter are
// honored the same way the SQL store applies them.
type MemStore struct {
	mu          sync.Mutex
	Schedules   []model.Schedule
	Injects     map[int]model.Inject
	Groups      map[int]model.Group
	Users       map[int]*model.User
	Submissions map[int]int
	Config      map[string]string
	Err         error
}

var _ db.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Injects:     map[int]model.Inject{},
		Groups:      map[int]model.Group{},
		Users:       map[int]*model.User{},
		Submissions: map[int]int{},
		Config:      map[string]string{},
	}
}

func (m *MemStore) ListSchedules(ctx context.Context, f db.ScheduleFilter) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.Schedule{}
	for _, s := range m.Schedules {
		if f.ID != nil && s.ID != *f.ID {
			continue
		}
		if f.GroupIDs != nil && !contains(f.GroupIDs, s.GroupID) {
			continue
		}
		if f.ActiveOnly && !s.Active {
			continue
		}
		if f.StartedBy != nil && s.AbsoluteStart(f.CompetitionStart) > *f.StartedBy {
			continue
		}
		if r := f.EndedWithin; r != nil {
			end := s.AbsoluteEnd(f.CompetitionStart)
			if !s.Expires() || end < r.From || end >= r.To {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MemStore) ListScheduleListings(ctx context.Context, activeOnly bool) ([]model.ScheduleListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.ScheduleListing{}
	for _, s := range m.Schedules {
		if activeOnly && !s.Active {
			continue
		}
		g := m.Groups[s.GroupID]
		out = append(out, model.ScheduleListing{Schedule: s, GroupName: g.Name, GroupTeamNumber: g.TeamNumber})
	}
	return out, nil
}

func (m *MemStore) ScheduleBounds(ctx context.Context, cs int64) (model.ScheduleBounds, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.ScheduleBounds{}, false, m.Err
	}
	if len(m.Schedules) == 0 {
		return model.ScheduleBounds{}, false, nil
	}
	b := model.ScheduleBounds{Min: m.Schedules[0].AbsoluteStart(cs), Max: m.Schedules[0].AbsoluteEnd(cs)}
	for _, s := range m.Schedules[1:] {
		if v := s.AbsoluteStart(cs); v < b.Min {
			b.Min = v
		}
		if v := s.AbsoluteEnd(cs); v > b.Max {
			b.Max = v
		}
	}
	return b, true, nil
}

func (m *MemStore) CreateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Schedule{}, m.Err
	}
	s.ID = len(m.Schedules) + 1
	for _, existing := range m.Schedules {
		if existing.ID >= s.ID {
			s.ID = existing.ID + 1
		}
	}
	m.Schedules = append(m.Schedules, s)
	return s, nil
}

func (m *MemStore) SetScheduleActive(ctx context.Context, id int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Schedules {
		if m.Schedules[i].ID == id {
			m.Schedules[i].Active = active
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *MemStore) GetInjectByID(ctx context.Context, id int) (*model.Inject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.Injects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &in, nil
}

func (m *MemStore) GetInjectsByIDs(ctx context.Context, ids []int) (map[int]model.Inject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int]model.Inject{}
	for _, id := range ids {
		if in, ok := m.Injects[id]; ok {
			out[id] = in
		}
	}
	return out, nil
}

func (m *MemStore) CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Submissions[injectID], nil
}

func (m *MemStore) GetGroupByID(ctx context.Context, id int) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.Groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (m *MemStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Group, 0, len(m.Groups))
	for _, g := range m.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *MemStore) GetConfigValue(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Config[key]
	return v, ok, nil
}

// AddUser registers a user with a bcrypt-hashed password and returns it.
func (m *MemStore) AddUser(t *testing.T, id int, username, password string, groupID int) *model.User {
	t.Helper()
	hashed, err := middleware.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{ID: id, Username: username, HashedPassword: hashed, GroupID: groupID}
	m.mu.Lock()
	m.Users[id] = u
	m.mu.Unlock()
	return u
}

// NewResolver builds a resolver over store with a fixed clock.
func NewResolver(t *testing.T, store *MemStore, competitionStart time.Time, now time.Time) *schedule.Resolver {
	t.Helper()
	r, err := schedule.NewResolver(store, store, schedule.Options{
		CompetitionStart: competitionStart,
		Clock:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

// Token signs a session token for userID.
func Token(t *testing.T, userID int) string {
	t.Helper()
	token, err := middleware.GenerateJWT(userID, JWTSecret)
	if err != nil {
		t.Fatalf("GenerateJWT() failed: %v", err)
	}
	return token
}

// Do sends a request through router and returns the recorder.
func Do(router http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// NewRouter returns a gin engine in test mode.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
