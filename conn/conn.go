package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gwatts/rootcerts"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"golang.org/x/sync/singleflight"

	"github.com/cadencehq/mongoconn/config/secret"
	"github.com/cadencehq/mongoconn/o11y"
)

const defaultConnectTimeout = 10 * time.Second

type Config struct {
	// URI is the full mongodb:// connection string. Required.
	URI secret.String
	// AppName is reported to the server to aid in diagnosing connections.
	AppName string
	// DBName is the database handed out by DB and Load.
	DBName string
	// UseTLS dials with TLS using the embedded Mozilla root pool.
	UseTLS bool
	// ConnectTimeout bounds the readiness check on first connect. Defaults to 10s.
	ConnectTimeout time.Duration

	// Options, when set, is the base client options the URI and the other
	// fields above are applied over.
	Options *options.ClientOptions
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return c.ConnectTimeout
}

// Manager hands out a single shared mongo client, connecting on first use.
//
// Concurrent callers share one connection attempt. A successful attempt is
// memoized for the life of the Manager, a failed one is forgotten so the
// next call can retry.
type Manager struct {
	cfg  Config
	pool *poolMetrics

	// dial is swapped in tests
	dial func(ctx context.Context) (*mongo.Client, error)

	sf singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		cfg:  cfg,
		pool: newPoolMetrics("mongo"),
	}
	m.dial = m.connect
	return m
}

// Client returns the shared client, establishing the underlying connection
// on first use. It is safe to call from any number of goroutines: while a
// connect is in flight every caller waits on that same attempt, and no
// duplicate connection is ever dialed.
//
// On failure the error is the driver's error, unwrapped, and the next call
// starts a fresh attempt.
func (m *Manager) Client(ctx context.Context) (*mongo.Client, error) {
	if c := m.cached(); c != nil {
		return c, nil
	}

	v, err, _ := m.sf.Do("connect", func() (interface{}, error) {
		// A racing caller may have connected between our cache miss and
		// this flight starting.
		if c := m.cached(); c != nil {
			return c, nil
		}
		client, err := m.dial(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.client = client
		m.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

// DB returns the configured database on the shared client, connecting on
// first use as per Client.
func (m *Manager) DB(ctx context.Context) (*mongo.Database, error) {
	client, err := m.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(m.cfg.DBName), nil
}

// Disconnect closes the underlying connection if one was ever established.
// It exists for system cleanup, callers do not normally disconnect.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (m *Manager) cached() *mongo.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// connect dials mongo. The context passed in is expected to carry an o11y
// provider and is only used for reporting (not for cancellation).
func (m *Manager) connect(ctx context.Context) (client *mongo.Client, err error) {
	ctx, span := o11y.StartSpan(ctx, "conn: connect to database")
	defer o11y.End(span, &err)

	mongoURL, err := url.Parse(m.cfg.URI.Raw())

	// url.Parse will print the URI if it can't parse. The URI contains the password, so this gets the underlying error
	// without printing the secret string.
	var urlError *url.Error
	if errors.As(err, &urlError) {
		return nil, fmt.Errorf("conn: failed to parse URI: %w", urlError.Err)
	} else if err != nil {
		return nil, err
	}

	span.AddField("host", mongoURL.Host)
	span.AddField("username", mongoURL.User.Username())

	opts := m.cfg.Options
	if opts == nil {
		opts = options.Client()
	}

	opts.
		ApplyURI(m.cfg.URI.Raw()).
		SetAppName(m.cfg.AppName).
		SetPoolMonitor(m.pool.PoolMonitor(nil))

	if m.cfg.UseTLS {
		opts = opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    rootcerts.ServerCertPool(),
		})
	}

	client, err = mongo.Connect(opts)
	if err != nil {
		return nil, err
	}

	// The driver buffers operations until it finds a server. Ping here so
	// the handle we memoize is ready to use, and a bad target fails this
	// attempt now rather than queueing work behind it.
	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.connectTimeout())
	defer cancel()
	if perr := client.Ping(pingCtx, readpref.Primary()); perr != nil {
		_ = client.Disconnect(ctx)
		return nil, perr
	}

	return client, nil
}
