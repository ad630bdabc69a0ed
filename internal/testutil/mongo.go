package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnvTestMongoURI names the environment variable that points store tests at
// a MongoDB instance. When unset, tests try localhost and skip if nothing
// answers.
const EnvTestMongoURI = "SKILLHUB_TEST_MONGO_URI"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// SetupTestDB connects to the test MongoDB instance and returns a database
// unique to the calling test. The database is dropped during test cleanup,
// so tests can run in parallel without stepping on each other's data.
// Tests are skipped when no MongoDB is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(EnvTestMongoURI)
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			clientErr = err
			return
		}
		if err := c.Ping(ctx, nil); err != nil {
			clientErr = err
			return
		}
		client = c
	})
	if clientErr != nil {
		t.Skipf("mongodb not reachable at %s: %v (set %s to override)", uri, clientErr, EnvTestMongoURI)
	}

	name := fmt.Sprintf("skillhub_test_%s", primitive.NewObjectID().Hex())
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop test database %s: %v", name, err)
		}
	})

	return db
}

// TestContext returns a context with a timeout generous enough for store
// operations against a local MongoDB.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
