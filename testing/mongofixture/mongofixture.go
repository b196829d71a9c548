/*
Package mongofixture will setup an isolated Mongo DB for your tests, so they don't interfere.
*/
package mongofixture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gotest.tools/v3/assert"

	"github.com/cadencehq/mongoconn/config/secret"
	"github.com/cadencehq/mongoconn/conn"
	"github.com/cadencehq/mongoconn/o11y"
)

type Fixture struct {
	DB   *mongo.Database
	Name string
	URI  string
}

type Connection struct {
	URI string
}

func Setup(ctx context.Context, t testing.TB, con Connection) *Fixture {
	t.Helper()
	ctx, span := o11y.StartSpan(ctx, "mongofixture: setup")
	defer span.End()

	m := conn.NewManager(conn.Config{
		URI:     secret.String(con.URI),
		AppName: "test",
	})
	client, err := m.Client(ctx)
	assert.Assert(t, err)

	t.Cleanup(func() {
		assert.Check(t, m.Disconnect(ctx))
	})

	name := fmt.Sprintf("%s-%s", randomSuffix(), strings.ReplaceAll(t.Name(), "/", "_"))
	name = truncate(name)
	span.AddField("name", name)

	db := client.Database(name)
	t.Cleanup(func() {
		assert.Check(t, db.Drop(ctx))
	})

	return &Fixture{
		DB:   db,
		Name: name,
		URI:  con.URI,
	}
}

func randomSuffix() string {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "not-random--i-hope-thats-ok"
	}
	return hex.EncodeToString(bytes)
}

func truncate(s string) string {
	if len(s) >= 64 {
		return s[:63]
	}
	return s
}
