package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

// ReasonNotify marks invalidations raised by a database notification.
const ReasonNotify = "notify"

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// notificationConn is the part of a pgx connection the listener uses.
type notificationConn interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// dialFunc opens a notification connection.
type dialFunc func(ctx context.Context, dsn string) (notificationConn, error)

// PgListener listens on a PostgreSQL channel and turns every notification
// payload (an event id) into an invalidation. It reconnects with
// exponential backoff until its context is done.
type PgListener struct {
	dsn        string
	channel    string
	target     Invalidator
	dial       dialFunc
	logger     logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewPgListener creates a listener for channel on the database at dsn.
func NewPgListener(dsn, channel string, target Invalidator, opts ...ListenerOption) *PgListener {
	l := &PgListener{
		dsn:        dsn,
		channel:    channel,
		target:     target,
		dial:       dialPgx,
		logger:     logger.Get().Named("pg-listener"),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until ctx is done.
func (l *PgListener) Run(ctx context.Context) {
	backoff := l.minBackoff
	for {
		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = l.minBackoff
		}
		metrics.RecordListenerReconnect()
		l.logger.Warn(ctx, "notification listener disconnected",
			logger.String("channel", l.channel),
			logger.Duration("retry_in", backoff),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > l.maxBackoff {
			backoff = l.maxBackoff
		}
	}
}

// listen holds one connection. connected reports whether LISTEN succeeded.
func (l *PgListener) listen(ctx context.Context) (connected bool, err error) {
	conn, err := l.dial(ctx, l.dsn)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background()) //nolint:errcheck // connection is being dropped

	if err := conn.Listen(ctx, l.channel); err != nil {
		return false, fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info(ctx, "listening for score changes", logger.String("channel", l.channel))

	for {
		payload, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		if payload == "" {
			continue
		}
		l.target.Invalidate(ctx, payload, ReasonNotify)
	}
}

// pgxConn adapts *pgx.Conn to notificationConn.
type pgxConn struct {
	conn *pgx.Conn
}

func dialPgx(ctx context.Context, dsn string) (notificationConn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

func (c *pgxConn) Listen(ctx context.Context, channel string) error {
	_, err := c.conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	return err
}

func (c *pgxConn) WaitForNotification(ctx context.Context) (string, error) {
	n, err := c.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
