package assessment

import (
	"context"
	"sync"

	"github.com/anzegrcar/lingua-core/core/content"
)

// stagePayload carries whichever content variant a stage fetch produced.
// Exactly one field is set.
type stagePayload struct {
	reading   *content.ReadingContent
	listening *listeningPayload
	writing   *content.WritingTask
	speaking  *content.SpeakingTask
}

// prefetchTask is one speculative background fetch bound to a single
// cache slot. It writes only into its own fields, so an abandoned task
// resolving late cannot touch anything the session still reads.
type prefetchTask struct {
	cancel context.CancelFunc
	done   chan struct{}

	payload stagePayload
	err     error
}

func (t *prefetchTask) await(ctx context.Context) (stagePayload, error) {
	select {
	case <-t.done:
		return t.payload, t.err
	case <-ctx.Done():
		return stagePayload{}, ctx.Err()
	}
}

// preloadCache maps a stage to at most one pending-or-ready payload,
// holding strictly the stage one ahead of current. Slots are produced
// speculatively and consumed at most once; clearing cancels outstanding
// tasks and drops their late results instead of caching them.
type preloadCache struct {
	mu    sync.Mutex
	slots map[Stage]*prefetchTask
}

func newPreloadCache() *preloadCache {
	return &preloadCache{slots: map[Stage]*prefetchTask{}}
}

// begin starts a background fetch for stage unless a slot already exists.
func (c *preloadCache) begin(ctx context.Context, stage Stage, fetch func(context.Context) (stagePayload, error)) {
	c.mu.Lock()
	if _, exists := c.slots[stage]; exists {
		c.mu.Unlock()
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &prefetchTask{cancel: cancel, done: make(chan struct{})}
	c.slots[stage] = task
	c.mu.Unlock()

	go func() {
		defer close(task.done)
		defer cancel()
		task.payload, task.err = fetch(taskCtx)
	}()
}

// consume removes and returns the slot for stage, spending it.
func (c *preloadCache) consume(stage Stage) *prefetchTask {
	c.mu.Lock()
	defer c.mu.Unlock()

	task := c.slots[stage]
	delete(c.slots, stage)
	return task
}

// clear cancels every outstanding task and empties the cache.
func (c *preloadCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for stage, task := range c.slots {
		task.cancel()
		delete(c.slots, stage)
	}
}

func (c *preloadCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
