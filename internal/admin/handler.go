// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/order"
)

type Handler struct {
	cfg HandlerConfig
}

// HandlerConfig wires the counters and probes the dashboard reads. Any
// field may be nil; its section is then omitted or reported unhealthy.
type HandlerConfig struct {
	CountUsers    func(ctx context.Context) (int, error)
	CountProducts func(ctx context.Context) (int, error)
	OrderStats    func(ctx context.Context) (*order.Stats, error)
	DBStats       func() sql.DBStats
	RedisStats    func() *redis.PoolStats
	DBPing        func(ctx context.Context) error
	RedisPing     func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/store", h.GetStoreStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	store, err := h.storeStats(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SystemStatsResponse{
		Store: store,
		Database: ServiceStatus[DBPoolStats]{
			Healthy: ping(ctx, h.cfg.DBPing),
			Stats:   h.dbStats(),
		},
		Redis: ServiceStatus[RedisPoolStats]{
			Healthy: ping(ctx, h.cfg.RedisPing),
			Stats:   h.redisStats(),
		},
		Runtime: runtimeStats(),
	})
}

func (h *Handler) GetStoreStats(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, store)
}

func (h *Handler) storeStats(ctx context.Context) (StoreStats, error) {
	stats := StoreStats{Revenue: decimal.Zero}

	g, ctx := errgroup.WithContext(ctx)

	if h.cfg.CountUsers != nil {
		g.Go(func() (err error) {
			stats.Users, err = h.cfg.CountUsers(ctx)
			return err
		})
	}

	if h.cfg.CountProducts != nil {
		g.Go(func() (err error) {
			stats.Products, err = h.cfg.CountProducts(ctx)
			return err
		})
	}

	if h.cfg.OrderStats != nil {
		g.Go(func() error {
			orders, err := h.cfg.OrderStats(ctx)
			if err != nil {
				return err
			}
			stats.Orders = orders.Count
			stats.Revenue = orders.Revenue
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return StoreStats{}, err
	}

	return stats, nil
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func (h *Handler) dbStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	stats := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	stats := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		NumGC:        memStats.NumGC,
	}
}

type SystemStatsResponse struct {
	Store    StoreStats                    `json:"store"`
	Database ServiceStatus[DBPoolStats]    `json:"database"`
	Redis    ServiceStatus[RedisPoolStats] `json:"redis"`
	Runtime  RuntimeStats                  `json:"runtime"`
}

type StoreStats struct {
	Users    int             `json:"users"`
	Products int             `json:"products"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ServiceStatus[T any] struct {
	Healthy bool `json:"healthy"`
	Stats   *T   `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCpu"`
	MemAlloc     uint64 `json:"memAllocBytes"`
	NumGC        uint32 `json:"numGc"`
}
