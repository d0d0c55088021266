// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxAttempts     uint64
}

// DefaultPolicy suits short broker and network hiccups.
var DefaultPolicy = Policy{
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	MaxElapsedTime:  30 * time.Second,
	MaxAttempts:     5,
}

// Forever retries until ctx is cancelled.
var Forever = Policy{
	InitialInterval: time.Second,
	MaxInterval:     30 * time.Second,
}

// Permanent wraps err so Do stops retrying and returns it.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, the policy is
// exhausted, or ctx is done.
func Do(ctx context.Context, p Policy, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = p.MaxElapsedTime

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, p.MaxAttempts-1)
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
