package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"sync"
	"time"

	"brokerage-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 2 * time.Second

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// FeedProbe reports how many instruments the price feed currently quotes.
type FeedProbe func(ctx context.Context) (int, error)

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

// DepStatus is one dependency row: connected, stale, error or disconnected.
type DepStatus struct {
	Status string      `json:"status"`
	PingMs *int64      `json:"pingMs"`
	Detail interface{} `json:"detail,omitempty"`
}

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusError        = "error"
	statusStale        = "stale"
)

// timed runs ping and turns its outcome into a DepStatus.
func timed(ping func() error) DepStatus {
	start := time.Now()
	if err := ping(); err != nil {
		return DepStatus{Status: statusError}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: statusConnected, PingMs: &ms}
}

// CollectHealth probes the database, Redis and the price feed concurrently, then reads the
// traffic counters. Status is "ok" only when all three report connected.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, feed FeedProbe) CollectResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	deps := map[string]DepStatus{
		"database":   {Status: statusDisconnected},
		"redis":      {Status: statusDisconnected},
		"price_feed": {Status: statusDisconnected},
	}
	var mu sync.Mutex
	set := func(name string, st DepStatus) {
		mu.Lock()
		deps[name] = st
		mu.Unlock()
	}

	var g errgroup.Group
	if db != nil {
		g.Go(func() error {
			set("database", timed(db.Ping))
			return nil
		})
	}
	if rdb != nil {
		g.Go(func() error {
			set("redis", timed(func() error { return rdb.Ping(ctx).Err() }))
			return nil
		})
	}
	if feed != nil {
		g.Go(func() error {
			n, err := feed(ctx)
			switch {
			case err != nil:
				set("price_feed", DepStatus{Status: statusError})
			case n == 0:
				set("price_feed", DepStatus{Status: statusStale, Detail: map[string]int{"quotes": 0}})
			default:
				set("price_feed", DepStatus{Status: statusConnected, Detail: map[string]int{"quotes": n}})
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if deps["redis"].Status == statusConnected {
		startTimeMs = readTraffic(ctx, rdb, &stats, startTimeMs)
	}

	result := CollectResult{
		Status:       "issue",
		Runtime:      readRuntime(startTimeMs),
		Traffic:      stats,
		Dependencies: deps,
	}
	if deps["database"].Status == statusConnected && deps["redis"].Status == statusConnected &&
		deps["price_feed"].Status == statusConnected {
		result.Status = "ok"
	}
	return result
}

func readRuntime(startTimeMs int64) RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	return RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{Alloc: int(m.Alloc >> 20), HeapUsed: int(m.HeapInuse >> 20)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
}

// readTraffic fills stats from the HealthMarker counters and returns the recorded start time.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startTimeMs int64) int64 {
	vals, err := rdb.MGet(ctx,
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
	).Result()
	if err != nil {
		return startTimeMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startTimeMs = t
	} else {
		rdb.SetNX(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lastReq map[string]interface{}
		if json.Unmarshal([]byte(last), &lastReq) == nil {
			stats.LastRequest = lastReq
		}
	}
	return startTimeMs
}
