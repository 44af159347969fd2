package autowire

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Preload creates the named instances concurrently and caches them, so later lookups share them
// and do not pay for construction. It waits for every creation and returns all failures joined.
// A panicking constructor is reported as an error for its name.
//
// Two names that depend on the same type may both construct it; the first instance stored wins.
func (c *DefaultContainer) Preload(ctx context.Context, names ...TypeName) error {
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		errs []error
	)
	for _, name := range names {
		wg.Add(1)
		go func(name TypeName) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					lock.Lock()
					errs = append(errs, fmt.Errorf("panic preloading %v: %v", name, r))
					lock.Unlock()
				}
			}()
			if _, err := c.Get(ctx, name); err != nil {
				lock.Lock()
				errs = append(errs, fmt.Errorf("preloading %v: %w", name, err))
				lock.Unlock()
			}
		}(name)
	}
	wg.Wait()
	return errors.Join(errs...)
}
