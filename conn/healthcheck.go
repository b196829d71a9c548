package conn

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type health struct {
	m *Manager
}

func (h *health) HealthChecks() (name string, ready, live func(ctx context.Context) error) {
	ready = func(ctx context.Context) error {
		client := h.m.cached()
		if client == nil {
			// Nothing has needed the database yet, there is nothing to check.
			return nil
		}

		ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		defer cancelPing()

		err := client.Ping(ctxPing, readpref.Primary())
		if err != nil {
			return fmt.Errorf("mongoDB health check failed on ping: %w", err)
		}

		return nil
	}
	return "mongo", ready, nil
}
