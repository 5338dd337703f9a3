// AngelaMos | 2026
// user_test.go

package user

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*User)}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (m *memRepo) List(_ context.Context, params ListUsersParams) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]User, 0, len(m.users))
	for _, u := range m.users {
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	start := min(params.Offset(), len(all))
	end := min(start+params.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func TestCreateNormalizesAndDefaultsRole(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	info, err := svc.Create(ctx, "  Ann@Example.COM ", "hash", " Ann ")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", info.Email)
	assert.Equal(t, "Ann", info.Name)
	assert.Equal(t, RoleUser, info.Role)

	_, err = svc.Create(ctx, "ANN@example.com", "hash", "Other")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	found, err := svc.GetByEmail(ctx, "ann@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, info.ID, found.ID)
}

func TestGetRoleReadsStore(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	info, err := svc.Create(ctx, "boss@example.com", "hash", "Boss")
	require.NoError(t, err)

	role, err := svc.GetRole(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	repo.users[info.ID].Role = RoleAdmin
	role, err = svc.GetRole(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = svc.GetRole(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func withIdentity(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), &middleware.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }

func TestGetMeHandler(t *testing.T) {
	svc := NewService(newMemRepo())
	info, err := svc.Create(context.Background(), "me@example.com", "hash", "Me")
	require.NoError(t, err)

	tests := []struct {
		name   string
		userID string
		status int
	}{
		{"existing user", info.ID, http.StatusOK},
		{"vanished user", "gone", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(svc).RegisterRoutes(r, withIdentity(tt.userID))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "hash")
		})
	}
}

func TestListUsersPaginates(t *testing.T) {
	svc := NewService(newMemRepo())
	for i := range 5 {
		_, err := svc.Create(context.Background(), fmt.Sprintf("u%d@example.com", i), "hash", "U")
		require.NoError(t, err)
	}

	r := chi.NewRouter()
	NewHandler(svc).RegisterAdminRoutes(r, passThrough, passThrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users?page=2&pageSize=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []UserResponse `json:"data"`
		Meta core.Meta      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 5, body.Meta.Total)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.Equal(t, "u2@example.com", body.Data[0].Email)
}

func TestListUsersParamsClampPage(t *testing.T) {
	p := ListUsersParams{Page: math.MaxInt, PageSize: 50}
	p.Normalize()

	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, (MaxPage-1)*50, p.Offset())
}
