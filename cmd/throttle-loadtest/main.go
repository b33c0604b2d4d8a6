package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goThrottle "github.com/MrEthical07/goThrottle"
)

const auditStream = "goThrottle:loadtest"

func main() {
	var (
		keyCount      = flag.Int("keys", 10000, "number of distinct client addresses")
		concurrency   = flag.Int("concurrency", 256, "number of concurrent workers")
		ops           = flag.Int("ops", 200000, "operations per phase (failure + precheck)")
		threshold     = flag.Int("threshold", 3, "failure threshold")
		rangeSeconds  = flag.Int("range", 60, "failure range in seconds")
		usernameParam = flag.String("username-param", "username", "username parameter; empty keys on address only")
		redisAddr     = flag.String("redis-addr", "", "redis address for audit events; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *keyCount <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "keys, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	_ = client.Del(ctx, auditStream).Err()

	var skew atomic.Int64
	clock := func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }

	cfg := goThrottle.DefaultConfig()
	cfg.Throttle = goThrottle.ThrottleConfig{
		FailureThreshold:    *threshold,
		FailureRangeSeconds: *rangeSeconds,
		UsernameParameter:   *usernameParam,
	}
	cfg.Cleaner.Enabled = false
	cfg.Audit.BufferSize = 65536
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goThrottle.New().
		WithConfig(cfg).
		WithClock(clock).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithAuditSink(goThrottle.NewRedisStreamSink(client, goThrottle.RedisStreamConfig{Stream: auditStream, MaxLen: -1}, nil)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	subs := make([]goThrottle.SubmissionContext, *keyCount)
	for i := range subs {
		subs[i] = submissionFor(i)
	}

	failureStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) bool {
		engine.OnAuthenticationFailure(ctx, subs[r.Intn(len(subs))])
		return false
	})
	precheckStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) bool {
		return engine.PreCheck(ctx, subs[r.Intn(len(subs))]).Denied()
	})

	trackedBefore := engine.TrackedKeyCount()
	skew.Add(int64(engine.ThrottleConfig().Range() + time.Second))
	sweep, err := engine.Sweep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %v\n", err)
		os.Exit(1)
	}

	engine.Close()
	streamLen, err := client.XLen(ctx, auditStream).Result()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read audit stream: %v\n", err)
	}

	fmt.Println(renderSummary(summary{
		strategy:      engine.Strategy(),
		failure:       failureStats,
		precheck:      precheckStats,
		trackedBefore: trackedBefore,
		trackedAfter:  engine.TrackedKeyCount(),
		sweep:         sweep,
		auditEvents:   streamLen,
		auditDropped:  engine.AuditDropped(),
	}))
}

// runPhase executes op ops times across concurrency workers. op reports
// whether the call was denied.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		denied    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				d := op(r)
				elapsed := time.Since(t0)
				if d {
					atomic.AddInt64(&denied, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, denied)
}

func submissionFor(i int) goThrottle.SubmissionContext {
	return goThrottle.SubmissionContext{
		ClientAddress: fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF),
		Username:      fmt.Sprintf("user-%d", i%97),
	}
}
