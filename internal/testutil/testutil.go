package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/lingo-exchange/internal/api"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/repository"
	repoMongo "github.com/dom/lingo-exchange/internal/repository/mongo"
	repoPostgres "github.com/dom/lingo-exchange/internal/repository/postgres"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/dom/lingo-exchange/internal/websocket"
	"github.com/go-redis/redis/v8"
	"github.com/testcontainers/testcontainers-go"
	tcMongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_lingo"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"friend_requests", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestMongo manages a testcontainers MongoDB instance
type TestMongo struct {
	Container *tcMongo.MongoDBContainer
	Client    *mongo.Client
	DB        *mongo.Database
}

// NewTestMongo starts MongoDB and returns a database with indexes in place
func NewTestMongo(t *testing.T) *TestMongo {
	t.Helper()

	ctx := context.Background()

	container, err := tcMongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	client, db, err := repoMongo.NewConnection(ctx, uri, "test_lingo")
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	t.Cleanup(func() {
		client.Disconnect(context.Background())
	})

	return &TestMongo{Container: container, Client: client, DB: db}
}

// Truncate removes every document while keeping indexes
func (tm *TestMongo) Truncate(t *testing.T) {
	t.Helper()

	for _, name := range []string{"users", "friendrequests"} {
		if _, err := tm.DB.Collection(name).DeleteMany(context.Background(), bson.M{}); err != nil {
			t.Logf("warning: failed to clear %s: %v", name, err)
		}
	}
}

// Count returns the number of documents matching filter in a collection
func (tm *TestMongo) Count(t *testing.T, collection string, filter interface{}) int64 {
	t.Helper()

	n, err := tm.DB.Collection(collection).CountDocuments(context.Background(), filter)
	if err != nil {
		t.Fatalf("failed to count %s: %v", collection, err)
	}
	return n
}

// NewTestRedis starts a Redis container and returns a connected client
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	opts, err := redis.ParseURL(endpoint)
	if err != nil {
		t.Fatalf("failed to parse redis endpoint: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Environment:       "test",
		FrontendURL:       "http://localhost:5173",
		StoreDriver:       config.StoreDriverPostgres,
		UserCacheTTL:      time.Minute,
		JWTSecret:         "test-jwt-secret-key-for-testing-only",
		SessionTTL:        time.Hour,
		AvatarURLTemplate: "https://avatar.iran.liara.run/public/%d.png",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Chat     *FakeChatProvider
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by PostgreSQL
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	ts := NewTestServerWithRepos(t, repoPostgres.NewRepositories(testDB.DB))
	ts.DB = testDB
	return ts
}

// NewTestServerWithRepos wires a server around an existing store
func NewTestServerWithRepos(t *testing.T, repos *repository.Repositories) *TestServer {
	t.Helper()

	cfg := TestConfig()
	chatProvider := NewFakeChatProvider()

	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, chatProvider, hub, cfg)
	router := api.NewRouter(services, hub, cfg)

	server := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Chat:     chatProvider,
		Config:   cfg,
	}
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// WebSocketURL returns the notification socket URL
func (ts *TestServer) WebSocketURL() string {
	return "ws" + ts.Server.URL[len("http"):] + "/api/ws"
}
