package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

// HealthChecker pings one dependency.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function, e.g. a backend ping
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// PingDB checks the export ledger connection.
func PingDB(db *sql.DB) HealthChecker {
	return CheckerFunc(db.PingContext)
}

// PingRedis checks the metrics cache.
func PingRedis(rdb *redis.Client) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
}

type optionalChecker struct{ HealthChecker }

// Optional marks a dependency the dashboard can limp along without. Its
// failure reports "degraded" instead of taking the service down.
func Optional(c HealthChecker) HealthChecker { return optionalChecker{c} }

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthDown     = "down"
)

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status    string `json:"status"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthHandler pings every dependency concurrently. Any required failure
// answers 503; optional failures alone still answer 200.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			mu     sync.Mutex
			report = HealthStatus{Status: healthOK, Timestamp: time.Now().UTC(), Checks: make(map[string]CheckStatus, len(checkers))}
		)

		// checks never return errors to the group so every one runs to the end
		var g errgroup.Group
		for name, c := range checkers {
			g.Go(func() error {
				_, optional := c.(optionalChecker)
				ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
				defer cancel()

				start := time.Now()
				err := c.Check(ctx)
				st := CheckStatus{Status: healthOK, Optional: optional, LatencyMS: time.Since(start).Milliseconds()}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					st.Status, st.Message = healthDown, err.Error()
					switch {
					case !optional:
						report.Status = healthDown
					case report.Status == healthOK:
						report.Status = healthDegraded
					}
				}
				report.Checks[name] = st
				return nil
			})
		}
		_ = g.Wait()

		code := http.StatusOK
		if report.Status == healthDown {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(report)
	}
}

// ReadinessHandler reports ready once the process serves requests; it does
// not ping dependencies
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"status": "ready", "timestamp": time.Now().UTC()})
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
