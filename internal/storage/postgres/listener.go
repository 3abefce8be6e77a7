package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/kasir/pkg/changefeed"
)

const defaultReconnectDelay = time.Second

// Listener relays PostgreSQL NOTIFY events on the given channels to a
// changefeed.Feed. Channel names double as feed topics.
type Listener struct {
	pool     *pgxpool.Pool
	feed     *changefeed.Feed
	channels []string
	delay    time.Duration
}

// NewListener creates a Listener for channels.
func NewListener(pool *pgxpool.Pool, feed *changefeed.Feed, channels ...string) *Listener {
	return &Listener{
		pool:     pool,
		feed:     feed,
		channels: channels,
		delay:    defaultReconnectDelay,
	}
}

// Run listens until ctx is done, reconnecting after connection failures.
// Every (re)connect signals all topics since notifications sent while
// disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		lg.Warn("Change listener disconnected", zap.Error(err), zap.Duration("retry_in", l.delay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring listener connection: %w", err)
	}
	// The connection carries LISTEN state, so it never goes back to the pool.
	defer func() {
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}()

	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return fmt.Errorf("listen %q: %w", ch, err)
		}
	}
	l.feed.PublishAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}
		l.feed.Publish(n.Channel)
	}
}
