package conn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/cadencehq/mongoconn/testing/testcontext"
)

func TestManager_SharesSingleConnectAttempt(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{URI: "mongodb://localhost:27017"})

	want := fakeClient(t)
	var dials int32
	release := make(chan struct{})
	m.dial = func(ctx context.Context) (*mongo.Client, error) {
		atomic.AddInt32(&dials, 1)
		<-release
		return want, nil
	}

	const callers = 20
	clients := make([]*mongo.Client, callers)
	errs := make([]error, callers)

	var entered, wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		entered.Add(1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entered.Done()
			clients[i], errs[i] = m.Client(ctx)
		}(i)
	}

	// Let the callers pile up behind the in-flight attempt, then resolve it.
	entered.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Check(t, cmp.Equal(atomic.LoadInt32(&dials), int32(1)),
		"concurrent callers must share one connect")
	for i := 0; i < callers; i++ {
		assert.Check(t, errs[i])
		assert.Check(t, clients[i] == want, "caller %d got a different client", i)
	}
}

func TestManager_ReusesClient(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{URI: "mongodb://localhost:27017"})

	want := fakeClient(t)
	var dials int32
	m.dial = func(ctx context.Context) (*mongo.Client, error) {
		atomic.AddInt32(&dials, 1)
		return want, nil
	}

	first, err := m.Client(ctx)
	assert.NilError(t, err)

	second, err := m.Client(ctx)
	assert.NilError(t, err)

	assert.Check(t, first == want)
	assert.Check(t, second == want, "repeat calls must observe the identical client")
	assert.Check(t, cmp.Equal(atomic.LoadInt32(&dials), int32(1)))
}

func TestManager_RetriesAfterFailure(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{URI: "mongodb://localhost:27017"})

	want := fakeClient(t)
	errBoom := errors.New("boom")
	var dials int32
	m.dial = func(ctx context.Context) (*mongo.Client, error) {
		if atomic.AddInt32(&dials, 1) == 1 {
			return nil, errBoom
		}
		return want, nil
	}

	_, err := m.Client(ctx)
	assert.Check(t, err == errBoom, "the driver error must pass through unchanged")

	// The failed attempt is forgotten, the next call dials again.
	client, err := m.Client(ctx)
	assert.NilError(t, err)
	assert.Check(t, client == want)
	assert.Check(t, cmp.Equal(atomic.LoadInt32(&dials), int32(2)))
}

func TestManager_FailureReachesEveryWaiter(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{URI: "mongodb://localhost:27017"})

	errBoom := errors.New("boom")
	var dials int32
	release := make(chan struct{})
	m.dial = func(ctx context.Context) (*mongo.Client, error) {
		atomic.AddInt32(&dials, 1)
		<-release
		return nil, errBoom
	}

	const callers = 10
	errs := make([]error, callers)

	var entered, wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		entered.Add(1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entered.Done()
			_, errs[i] = m.Client(ctx)
		}(i)
	}
	entered.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Check(t, cmp.Equal(atomic.LoadInt32(&dials), int32(1)))
	for i := 0; i < callers; i++ {
		assert.Check(t, errs[i] == errBoom, "caller %d must see the raw driver error", i)
	}
}

func TestManager_DisconnectWithoutConnect(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{URI: "mongodb://localhost:27017"})

	assert.NilError(t, m.Disconnect(ctx))
}

func TestManager_InvalidURIDoesNotLeak(t *testing.T) {
	ctx := testcontext.Background()
	m := NewManager(Config{
		URI: "mongodb://root:]@localhost:27017",
	})

	_, err := m.Client(ctx)
	assert.Check(t, cmp.Error(err, "conn: failed to parse URI: net/url: invalid userinfo"))
}

func TestShared_SurvivesReinitialisation(t *testing.T) {
	ctx := testcontext.Background()
	t.Cleanup(func() {
		shared.mu.Lock()
		shared.m = nil
		shared.mu.Unlock()
	})

	cfg := Config{URI: "mongodb://localhost:27017"}

	// Two independent setup paths use the shared slot.
	first := Shared(cfg)
	second := Shared(cfg)
	assert.Check(t, first == second, "both initialisations must observe the same manager")

	want := fakeClient(t)
	var dials int32
	first.dial = func(ctx context.Context) (*mongo.Client, error) {
		atomic.AddInt32(&dials, 1)
		return want, nil
	}

	c1, err := first.Client(ctx)
	assert.NilError(t, err)
	c2, err := second.Client(ctx)
	assert.NilError(t, err)

	assert.Check(t, c1 == c2)
	assert.Check(t, cmp.Equal(atomic.LoadInt32(&dials), int32(1)),
		"one connection across both initialisations")
}

// fakeClient builds a client without any I/O, for identity checks.
func fakeClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	assert.NilError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client
}
