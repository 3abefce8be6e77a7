package changefeed

import "context"

// LoadFunc reads the current state for a subscription.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Watch emits the value returned by load once immediately and again after
// every signal on topic. Load errors are passed to onErr and skipped. The
// returned channel is closed when ctx is done.
//
// Sends block until the consumer receives, so a slow consumer sees only the
// newest state: intermediate signals collapse into one pending reload.
func Watch[T any](ctx context.Context, src Source, topic string, load LoadFunc[T], onErr func(error)) <-chan T {
	out := make(chan T)
	signals, cancel := src.Subscribe(topic)

	go func() {
		defer close(out)
		defer cancel()

		emit := func() bool {
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				if onErr != nil {
					onErr(err)
				}
				return true
			}
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}
