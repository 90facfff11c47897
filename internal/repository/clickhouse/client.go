package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/config"
)

// Client wraps the ClickHouse connection. A client that fails to connect at
// startup stays in a not-ready state instead of crashing the process:
// analytics is best-effort and never a hard dependency of business flows.
type Client struct {
	connection driver.Conn
	config     *config.ClickHouse
	log        *zap.Logger
	ready      atomic.Bool
}

// NewClient creates a ClickHouse client and attempts to connect. Connection
// failures are logged and leave the client not ready; there is no automatic
// retry beyond what the driver's connection pool provides.
func NewClient(ctx context.Context, config *config.ClickHouse, log *zap.Logger) *Client {
	c := &Client{config: config, log: log}
	c.connect(ctx)
	return c
}

func (c *Client) connect(ctx context.Context) {
	addr := fmt.Sprintf("%s:%s", c.config.Host, c.config.Port)

	c.log.Info("Connecting to ClickHouse",
		zap.String("host", c.config.Host),
		zap.String("port", c.config.Port),
		zap.String("database", c.config.Database),
		zap.Bool("useTLS", c.config.UseTLS))

	var tlsConfig *tls.Config
	if c.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	connection, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: c.config.Database,
			Username: c.config.User,
			Password: c.config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		TLS:              tlsConfig,
		DialTimeout:      5 * time.Second,
		MaxOpenConns:     c.config.MaxOpenConns,
		MaxIdleConns:     c.config.MaxIdleConns,
		ConnMaxLifetime:  time.Duration(c.config.ConnMaxLifetime) * time.Second,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		c.log.Warn("ClickHouse connection failed, analytics degraded", zap.Error(err))
		return
	}

	if err := connection.Ping(ctx); err != nil {
		c.log.Warn("ClickHouse ping failed, analytics degraded", zap.Error(err))
		return
	}

	c.connection = connection
	c.ready.Store(true)
	c.log.Info("ClickHouse connection established successfully")
}

// Ready reports whether the connection was established.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Conn returns the underlying ClickHouse connection. Nil when not ready.
func (c *Client) Conn() driver.Conn {
	return c.connection
}

// Close closes the ClickHouse connection.
func (c *Client) Close() error {
	if c.connection == nil {
		return nil
	}
	c.log.Info("Closing ClickHouse connection")
	c.ready.Store(false)
	if err := c.connection.Close(); err != nil {
		c.log.Error("Error closing ClickHouse connection", zap.Error(err))
		return err
	}
	return nil
}
