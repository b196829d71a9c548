package conn

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cadencehq/mongoconn/system"
)

// Load connects to mongo and registers the connection's cleanup, health
// check and pool gauges on sys. The context passed in is expected to carry
// an o11y provider and is only used for reporting (not for cancellation).
//
// Unlike Manager, Load connects eagerly so that a service with bad database
// configuration fails at startup.
func Load(ctx context.Context, cfg Config, sys *system.System) (*mongo.Database, error) {
	m := NewManager(cfg)

	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	sys.AddCleanup(m.Disconnect)
	sys.AddHealthCheck(&health{m: m})
	sys.AddMetrics(m.pool)

	return db, nil
}
