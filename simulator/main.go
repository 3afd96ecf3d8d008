package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"job-dashboard/internal/config"
	"job-dashboard/pkg/client"
	"job-dashboard/pkg/job"
	"job-dashboard/pkg/observability"
	"job-dashboard/pkg/payload"
)

var taskNames = []string{"Generate Invoice", "Send Email", "Export Data", "Resize Image"}
var regions = []string{"us", "eu", "apac"}

func main() {
	cfg, err := config.Load(os.Getenv("JOBDASH_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(nil, cfg.Logging.Level)
	slog.SetDefault(logger)

	// The limiter is shared, so the total rate holds for any concurrency.
	c, err := client.New(cfg.Dashboard.APIURL, client.WithRateLimit(float64(cfg.Simulator.RatePerSec)))
	if err != nil {
		logger.Error("invalid api url", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("simulator starting", "api_url", cfg.Dashboard.APIURL,
		"rate_per_sec", cfg.Simulator.RatePerSec, "concurrency", cfg.Simulator.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Simulator.Concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			submitLoop(ctx, c, rand.New(rand.NewSource(seed)), logger)
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()
}

func submitLoop(ctx context.Context, c *client.Client, rng *rand.Rand, logger *slog.Logger) {
	b := payload.NewBuilder()
	for ctx.Err() == nil {
		req := randomRequest(rng, b)
		created, err := c.CreateJob(ctx, req)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("failed to submit job", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if created != nil {
			logger.Info("submitted job", "job_id", created.ID, "task_name", created.TaskName, "priority", created.Priority)
		}
	}
}

// randomRequest stages a payload in b the way a user would and returns the
// resulting create request. b is left empty.
func randomRequest(rng *rand.Rand, b *payload.Builder) job.CreateRequest {
	b.Reset()
	_ = b.AddPair("user", fmt.Sprintf("user%d", rng.Intn(1000)))
	_ = b.AddPair("region", regions[rng.Intn(len(regions))])
	if rng.Intn(4) == 0 {
		// occasionally resubmit a key; the last value wins
		_ = b.AddPair("region", regions[rng.Intn(len(regions))])
	}
	req := job.CreateRequest{
		TaskName: taskNames[rng.Intn(len(taskNames))],
		Priority: job.Priorities[rng.Intn(len(job.Priorities))],
		Payload:  b.Finalize(),
	}
	b.Reset()
	return req
}
