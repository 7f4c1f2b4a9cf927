package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// MinSettle is the shortest wait after any click or navigation.
const MinSettle = 500 * time.Millisecond

// RandomDelay waits for a random duration between min and max, or until ctx is done.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	if max < min {
		max = min
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Settle waits at least MinSettle for the page to finish mutating.
func Settle(ctx context.Context, min, max time.Duration) error {
	if min < MinSettle {
		min = MinSettle
	}
	return RandomDelay(ctx, min, max)
}

// HumanScroll scrolls the page down in steps and back up a little.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 3; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 300*time.Millisecond, 800*time.Millisecond); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// MouseJiggle moves the mouse to a few random points of the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	size := page.ViewportSize()
	if size == nil || size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		x := rand.Intn(size.Width)
		y := rand.Intn(size.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
