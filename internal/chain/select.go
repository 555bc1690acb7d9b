package chain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoHealthyRPC is returned when no RPC endpoint answers.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// pingTimeout bounds a single endpoint check.
const pingTimeout = 5 * time.Second

// SelectRPC returns the first URL in urls that answers eth_blockNumber.
// Endpoints are tried one after another in the given order.
func SelectRPC(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}

	var lastErr error
	for _, u := range urls {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		_, _, err := NewEVMClient(u).Ping(pctx)
		cancel()
		if err == nil {
			return u, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrNoHealthyRPC, lastErr)
}
