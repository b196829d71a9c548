package conn

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/cadencehq/mongoconn/config/secret"
	"github.com/cadencehq/mongoconn/system"
	"github.com/cadencehq/mongoconn/testing/testcontext"
)

func TestLoad(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set, skipping integration test")
	}

	ctx := testcontext.Background()
	cfg := Config{
		AppName: "connection-test",
		URI:     secret.String(uri),
		DBName:  "dbname",
		UseTLS:  false,
	}

	sys := system.New(ctx)
	defer sys.Cleanup(ctx)

	db, err := Load(ctx, cfg, sys)
	assert.NilError(t, err)

	assert.Check(t, cmp.Equal(db.Name(), "dbname"))
	assert.Check(t, cmp.Len(sys.HealthChecks(), 1))

	for _, hc := range sys.HealthChecks() {
		name, ready, _ := hc.HealthChecks()
		assert.Check(t, cmp.Equal(name, "mongo"))
		assert.Check(t, ready(ctx))
	}
}

func TestLoad_BadTarget(t *testing.T) {
	ctx := testcontext.Background()
	cfg := Config{
		AppName:        "connection-test",
		URI:            "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
		ConnectTimeout: defaultConnectTimeout,
	}

	sys := system.New(ctx)
	defer sys.Cleanup(ctx)

	_, err := Load(ctx, cfg, sys)
	assert.Check(t, err != nil, "an unreachable target must fail at load time")
	assert.Check(t, cmp.Len(sys.HealthChecks(), 0),
		"nothing should be registered for a failed load")
}
