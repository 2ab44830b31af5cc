package controllers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/metrics/counter"
)

// MetricsSource reads the webhook and notification counters.
type MetricsSource interface {
	Snapshot(ctx context.Context) (*counter.Snapshot, error)
}

// QueueStats reads job queue totals.
type QueueStats interface {
	GetQueueSize(ctx context.Context) (int64, error)
	GetJobStats(ctx context.Context) (map[jobqueue.JobStatus]int64, error)
}

// OpsController serves health and metrics endpoints.
type OpsController struct {
	metrics MetricsSource
	queue   QueueStats
}

func NewOpsController(metrics MetricsSource, queue QueueStats) *OpsController {
	return &OpsController{metrics: metrics, queue: queue}
}

func (oc *OpsController) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleMetrics renders counters and queue totals as plain text.
func (oc *OpsController) HandleMetrics(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	snap, err := oc.metrics.Snapshot(ctx)
	if err != nil {
		log.Errorf("[Metrics] Reading counters failed: %v", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "metrics_unavailable")
	}

	var b strings.Builder
	b.WriteString(snap.Text())
	if pending, err := oc.queue.GetQueueSize(ctx); err == nil {
		fmt.Fprintf(&b, "fyleslack_jobs_pending %d\n", pending)
	}
	if stats, err := oc.queue.GetJobStats(ctx); err == nil {
		for _, status := range []jobqueue.JobStatus{jobqueue.JobStatusCompleted, jobqueue.JobStatusFailed} {
			fmt.Fprintf(&b, "fyleslack_jobs{status=%q} %d\n", status, stats[status])
		}
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}
