package counter

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/cache"
)

const (
	outcomesKey   = "notification:counters:outcomes"
	deliveriesKey = "webhook:counters:deliveries"
)

// Counter keeps running webhook and notification totals in Redis hashes.
type Counter struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Counter {
	return &Counter{client: client}
}

// Default uses the shared cache connection.
func Default() *Counter {
	return New(cache.GetClient())
}

// AddOutcome counts one routed recipient under "<type>:<outcome>".
func (c *Counter) AddOutcome(ctx context.Context, notificationType, outcome string) error {
	return c.client.HIncrBy(ctx, outcomesKey, notificationType+":"+outcome, 1).Err()
}

// AddDelivery counts one inbound webhook by its final status ("processed", "duplicate", ...).
func (c *Counter) AddDelivery(ctx context.Context, status string) error {
	return c.client.HIncrBy(ctx, deliveriesKey, status, 1).Err()
}

// Line is one counter value.
type Line struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Snapshot is the current state of all counters.
type Snapshot struct {
	Outcomes   []Line `json:"outcomes"`
	Deliveries []Line `json:"deliveries"`
}

// Snapshot reads both hashes. Lines are sorted by name.
func (c *Counter) Snapshot(ctx context.Context) (*Snapshot, error) {
	outcomes, err := c.read(ctx, outcomesKey)
	if err != nil {
		return nil, err
	}
	deliveries, err := c.read(ctx, deliveriesKey)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Outcomes: outcomes, Deliveries: deliveries}, nil
}

func (c *Counter) read(ctx context.Context, key string) ([]Line, error) {
	data, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(data))
	for name, raw := range data {
		v, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || v == 0 {
			continue
		}
		lines = append(lines, Line{Name: name, Value: v})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

// Text renders the snapshot in a plain "name value" exposition format.
func (s *Snapshot) Text() string {
	var b strings.Builder
	for _, l := range s.Deliveries {
		b.WriteString("fyleslack_webhook_deliveries{status=\"" + l.Name + "\"} " + strconv.FormatInt(l.Value, 10) + "\n")
	}
	for _, l := range s.Outcomes {
		typ, outcome, _ := strings.Cut(l.Name, ":")
		b.WriteString("fyleslack_notifications{type=\"" + typ + "\",outcome=\"" + outcome + "\"} " + strconv.FormatInt(l.Value, 10) + "\n")
	}
	return b.String()
}
