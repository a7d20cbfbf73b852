package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"lead_engine_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue      = "default"
	defaultMaxRetries = 5
	recomputeTimeout  = 30 * time.Second
)

type Client struct {
	client     *asynq.Client
	queue      string
	maxRetries int
}

// RecomputeScheduler hands lead recomputes to the background worker.
type RecomputeScheduler interface {
	EnqueueLeadRecompute(ctx context.Context, leadID uuid.UUID) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(asynq.NewClient(opt), cfg), nil
}

func newClient(c *asynq.Client, cfg config.SchedulerConfig) *Client {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}

	maxRetries := cfg.GetRecomputeMaxRetries()
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		client:     c,
		queue:      queue,
		maxRetries: maxRetries,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueLeadRecompute schedules a derived-score recompute. Failed tasks are
// retried by asynq with exponential backoff up to the configured limit.
func (c *Client) EnqueueLeadRecompute(ctx context.Context, leadID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: leadID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxRetries),
		asynq.Timeout(recomputeTimeout),
	)
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
