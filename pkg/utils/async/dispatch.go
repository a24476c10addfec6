package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
)

// DefaultTimeout bounds one dispatched handler
const DefaultTimeout = 30 * time.Second

// inflight counts running handlers. idle is closed when the count drops to zero
// and replaced when it leaves zero, so Wait may run alongside Dispatch.
var inflight struct {
	mu      sync.Mutex
	running int
	idle    chan struct{}
}

func started() {
	inflight.mu.Lock()
	defer inflight.mu.Unlock()
	if inflight.running == 0 {
		inflight.idle = make(chan struct{})
	}
	inflight.running++
}

func finished() {
	inflight.mu.Lock()
	defer inflight.mu.Unlock()
	inflight.running--
	if inflight.running == 0 {
		close(inflight.idle)
	}
}

// Dispatch runs handler in a new goroutine, detached from the caller's cancellation but
// keeping its values (logger, sentry hub). The handler gets at most DefaultTimeout.
// Errors and panics are reported through errutil.Handle under the given name.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	bgCtx = logging.With(bgCtx, logging.From(ctx).With("task", name))

	started()
	go func() {
		defer finished()

		ctx, cancel := context.WithTimeout(bgCtx, DefaultTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(ctx, goerr.New(fmt.Sprintf("panic in async task: %v", r)), "async task panicked")
			}
		}()

		if err := handler(ctx); err != nil {
			errutil.Handle(ctx, err, "async task failed")
		}
	}()
}

// Wait blocks until no dispatched handler is running or ctx is done
func Wait(ctx context.Context) error {
	inflight.mu.Lock()
	if inflight.running == 0 {
		inflight.mu.Unlock()
		return nil
	}
	idle := inflight.idle
	inflight.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async tasks still running")
	}
}
