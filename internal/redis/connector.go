package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectOptions describes the snapshot backend connection and how long to
// wait for it at startup.
type ConnectOptions struct {
	Addr         string // ex: "localhost:6379"
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // overall budget for the startup probe (ex: 30s)
	RetryInterval  time.Duration // first pause between probes, doubled each time (ex: 2s)
	MaxWait        time.Duration // cap on the pause (ex: 10s)
	PingTimeout    time.Duration // budget of a single PING (ex: 2s)
	WarnThreshold  int           // failed probes logged as warnings before escalating to errors
}

func (o ConnectOptions) validate() error {
	var errs []error
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"ConnectTimeout", o.ConnectTimeout},
		{"RetryInterval", o.RetryInterval},
		{"MaxWait", o.MaxWait},
		{"PingTimeout", o.PingTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", p.name, p.value))
		}
	}
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

// backoff doubles the pause after every failed probe, up to max.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func (b *backoff) wait() time.Duration {
	d := b.next
	b.next = min(b.next*2, b.max)
	return d
}

// Connect opens the client and probes it with PING until it answers,
// ConnectTimeout elapses or ctx is cancelled. The client is closed when
// the probe gives up.
func Connect(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis connect options", logger.Error(err))
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := probe(ctx, client, opts, log.With(logger.String("addr", opts.Addr))); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func probe(parent context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis snapshot backend", logger.Duration("timeout", opts.ConnectTimeout))
	start := time.Now()
	pause := backoff{next: opts.RetryInterval, max: opts.MaxWait}

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis")
			}
			return nil
		}

		wait := pause.wait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			if parent.Err() != nil {
				return fmt.Errorf("redis connection to %s aborted: %w", opts.Addr, parent.Err())
			}
			log.Error("redis unavailable, snapshot backend cannot start",
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
			logRetry(log, attempt, opts.WarnThreshold, wait, err)
		}
	}
}

func logRetry(log logger.Logger, attempt, warnThreshold int, waited time.Duration, err error) {
	fields := []logger.Field{
		logger.Int("attempt", attempt),
		logger.Duration("waited", waited),
		logger.Error(err),
	}
	if attempt <= warnThreshold {
		log.Warn("redis connection failed, retrying", fields...)
		return
	}
	log.Error("redis still unavailable, retrying", fields...)
}
