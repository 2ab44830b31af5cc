package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
)

const (
	keyPrefix = "fyleslack:jobs:"

	JobKeyPrefix     = keyPrefix + "job:"
	JobQueueKey      = keyPrefix + "pending"
	JobProcessingKey = keyPrefix + "processing"
	JobDelayedKey    = keyPrefix + "delayed" // sorted set, score = due time in unix ms
	JobStatsKey      = keyPrefix + "stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour
)

// Handler executes one job of a registered type
type Handler func(ctx context.Context, job *Job) error

// Enqueuer is what request handlers need to hand work to the queue
type Enqueuer interface {
	EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error)
}

// Options tunes the worker pool and its maintenance loop.
type Options struct {
	Workers         int
	RetryDelay      time.Duration // retry n waits n*RetryDelay
	PromoteInterval time.Duration // how often due retries move back to pending
	StuckAfter      time.Duration // processing jobs older than this are requeued
	SweepInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Minute
	}
	if o.PromoteInterval <= 0 {
		o.PromoteInterval = time.Second
	}
	if o.StuckAfter <= 0 {
		o.StuckAfter = 10 * time.Minute
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	return o
}

// Queue runs jobs stored in Redis on a fixed pool of workers
type Queue struct {
	client   *redis.Client
	opts     Options
	mu       sync.Mutex
	handlers map[JobType]Handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewQueue creates a job queue on the shared cache client
func NewQueue(workers int) *Queue {
	return NewQueueWithClient(cache.GetClient(), workers)
}

// NewQueueWithClient creates a job queue on a specific Redis client
func NewQueueWithClient(client *redis.Client, workers int) *Queue {
	return NewQueueWithOptions(client, Options{Workers: workers})
}

func NewQueueWithOptions(client *redis.Client, opts Options) *Queue {
	return &Queue{
		client:   client,
		opts:     opts.withDefaults(),
		handlers: make(map[JobType]Handler),
	}
}

// RegisterHandler sets the handler for a job type. Call before Start.
func (q *Queue) RegisterHandler(jobType JobType, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

func (q *Queue) handler(jobType JobType) (Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

// Start launches the workers and the maintenance loop
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	log.Infof("[JobQueue] Starting %d workers", q.opts.Workers)

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	q.wg.Add(1)
	go q.maintain(ctx)
}

// Stop waits for in-flight jobs to finish
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()
	if cancel == nil {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	cancel()
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	log.Debugf("[JobQueue] Worker %d started", id)

	for ctx.Err() == nil {
		job, err := q.dequeueJob(ctx)
		switch {
		case err == nil:
			log.Infof("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
			// a job that started finishes even when Stop is called
			q.processJob(context.WithoutCancel(ctx), job)
		case errors.Is(err, redis.Nil) || ctx.Err() != nil:
		default:
			log.Errorf("[JobQueue] Worker %d: dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
	log.Debugf("[JobQueue] Worker %d stopped", id)
}

// maintain promotes due retries and recovers jobs orphaned by a crashed worker
func (q *Queue) maintain(ctx context.Context) {
	defer q.wg.Done()
	promote := time.NewTicker(q.opts.PromoteInterval)
	defer promote.Stop()
	sweep := time.NewTicker(q.opts.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-promote.C:
			if n, err := q.promoteDue(ctx, time.Now()); err != nil {
				log.Errorf("[JobQueue] Promoting retries failed: %v", err)
			} else if n > 0 {
				log.Debugf("[JobQueue] Promoted %d retries", n)
			}
		case <-sweep.C:
			if n, err := q.recoverStuck(ctx, time.Now()); err != nil {
				log.Errorf("[JobQueue] Stuck job sweep failed: %v", err)
			} else if n > 0 {
				log.Warnf("[JobQueue] Requeued %d stuck jobs", n)
			}
		}
	}
}

// promoteDue moves retries whose due time has passed back to the pending list.
// ZRem decides ownership so concurrent instances never push a job twice.
func (q *Queue) promoteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, JobDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	promoted := 0
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, JobDelayedKey, id).Result()
		if err != nil {
			return promoted, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, JobQueueKey, id).Err(); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// recoverStuck requeues jobs that sat in the processing list longer than
// StuckAfter and drops entries whose job data is gone.
func (q *Queue) recoverStuck(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil || job.Status != JobStatusProcessing {
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Warnf("[JobQueue] Dropping unreadable processing entry %s: %v", id, err)
			}
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if now.Sub(job.startedAt()) <= q.opts.StuckAfter {
			continue
		}

		log.Warnf("[JobQueue] Recovering stuck job %s (type=%s)", job.ID, job.Type)
		job.Status = JobStatusPending
		job.ErrorMsg = "recovered by sweeper"
		job.UpdatedAt = now
		q.saveJob(ctx, job)
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, JobProcessingKey, 1, id)
		pipe.RPush(ctx, JobQueueKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// EnqueueJob stores the job and appends it to the pending list
func (q *Queue) EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error) {
	ctx := context.Background()
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}

	log.Infof("[JobQueue] Enqueued job %s (Type: %s)", job.ID, job.Type)
	return job, nil
}

// dequeueJob blocks up to a second for the next job and moves it to processing
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	id, err := q.client.BLMove(ctx, JobQueueKey, JobProcessingKey, "RIGHT", "LEFT", time.Second).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.GetJob(ctx, id)
	if err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, id)
		return nil, fmt.Errorf("job %s unreadable: %w", id, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.saveJob(ctx, job)

	err := fmt.Errorf("%w: unknown job type: %s", ErrPermanent, job.Type)
	if h, ok := q.handler(job.Type); ok {
		err = h(ctx, job)
	}

	switch {
	case err == nil:
		log.Infof("[JobQueue] Job %s completed", job.ID)
		job.MarkAsCompleted()
		q.incrStats(ctx, JobStatusCompleted)
		q.client.Del(ctx, JobKeyPrefix+job.ID)

	case errors.Is(err, ErrPermanent):
		log.Errorf("[JobQueue] Job %s failed permanently: %v", job.ID, err)
		job.MarkAsPermanentlyFailed(err.Error())
		q.incrStats(ctx, JobStatusFailed)
		q.saveJob(ctx, job)

	default:
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			due := time.Now().Add(q.opts.RetryDelay * time.Duration(job.RetryCount))
			log.Warnf("[JobQueue] Job %s failed, retry %d/%d at %s: %v", job.ID, job.RetryCount, job.MaxRetries, due.Format(time.RFC3339), err)
			job.MarkAsRetrying()
			q.saveJob(ctx, job)
			if zerr := q.client.ZAdd(ctx, JobDelayedKey, redis.Z{Score: float64(due.UnixMilli()), Member: job.ID}).Err(); zerr != nil {
				log.Errorf("[JobQueue] Scheduling retry of %s failed: %v", job.ID, zerr)
			}
		} else {
			log.Errorf("[JobQueue] Job %s failed after %d attempts: %v", job.ID, job.RetryCount, err)
			q.incrStats(ctx, JobStatusFailed)
			q.saveJob(ctx, job)
		}
	}

	if err := q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing: %v", job.ID, err)
	}
}

func (q *Queue) saveJob(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to save job %s: %v", job.ID, err)
	}
}

func (q *Queue) incrStats(ctx context.Context, status JobStatus) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), 1).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob loads a job by id. Completed jobs are deleted and return redis.Nil.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetJobStats returns how many jobs were enqueued, completed and failed
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	raw, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[JobStatus]int64, len(raw))
	for status, count := range raw {
		if n, err := strconv.ParseInt(count, 10, 64); err == nil {
			stats[JobStatus(status)] = n
		}
	}
	return stats, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetProcessingSize returns the number of jobs being processed
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}

// GetDelayedSize returns the number of jobs waiting for a retry
func (q *Queue) GetDelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, JobDelayedKey).Result()
}
