package board

import (
	"context"
	"fmt"
	"log"

	"github.com/cenkalti/backoff/v4"
)

// ConnectWithRetry connects b, retrying with exponential backoff. The MCU
// resets when the port opens, so the first attempts commonly fail while
// the USB bridge re-enumerates.
func ConnectWithRetry(ctx context.Context, b Board, retries uint64) error {
	attempt := 0
	op := func() error {
		attempt++
		if err := b.Connect(); err != nil {
			log.Printf("board: connect attempt %d failed: %v", attempt, err)
			return err
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("board: connect after %d attempts: %w", attempt, err)
	}
	return nil
}
