package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kotlang/fasalneetiGo/appconfig"
	"github.com/Kotlang/fasalneetiGo/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const farmersCollection = "farmers"

type FarmerDbInterface interface {
	Farmer() FarmerRepositoryInterface
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// FarmerDb owns the single client connection of the process. The first call that needs the
// database connects and the handle is reused until Close.
type FarmerDb struct {
	uri      string
	database string
	timeout  time.Duration
	connect  func(ctx context.Context, uri string) (*mongo.Client, error)

	mu      sync.Mutex
	client  *mongo.Client
	db      *mongo.Database
	indexed bool
}

func ProvideFarmerDb(cfg appconfig.AppConfig) *FarmerDb {
	return &FarmerDb{
		uri:      cfg.MongoURI,
		database: cfg.Database,
		timeout:  cfg.StoreTimeout,
		connect:  dial,
	}
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Database returns the memoized handle, connecting first if needed. A failed attempt is not
// cached so the next caller tries again.
func (f *FarmerDb) Database(ctx context.Context) (*mongo.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.db != nil {
		return f.db, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	client, err := f.connect(connectCtx, f.uri)
	if err != nil {
		logger.Error("Failed connecting to farmer store", zap.Error(err))
		return nil, status.Error(codes.Unavailable, "Store unavailable")
	}

	logger.Info("Connected to farmer store", zap.String("database", f.database))
	f.client = client
	f.db = client.Database(f.database)
	return f.db, nil
}

func (f *FarmerDb) Farmer() FarmerRepositoryInterface {
	return NewFarmerRepository(func(ctx context.Context) (*mongo.Collection, error) {
		database, err := f.Database(ctx)
		if err != nil {
			return nil, err
		}
		return database.Collection(farmersCollection), nil
	})
}

func (f *FarmerDb) Ping(ctx context.Context) error {
	database, err := f.Database(ctx)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := database.Client().Ping(pingCtx, readpref.Primary()); err != nil {
		return toStatus(err)
	}
	f.ensureIndexes(pingCtx, database)
	return nil
}

// ensureIndexes runs once per connection, on the first successful ping. A failure is retried on
// the next ping and does not fail the ping itself.
func (f *FarmerDb) ensureIndexes(ctx context.Context, database *mongo.Database) {
	f.mu.Lock()
	done := f.indexed
	f.mu.Unlock()
	if done {
		return
	}

	repo := NewFarmerRepository(StaticCollection(database.Collection(farmersCollection)))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed creating farmer indexes", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.indexed = true
	f.mu.Unlock()
}

// Close releases the connection. Safe to call when nothing was connected.
func (f *FarmerDb) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil
	}
	err := f.client.Disconnect(ctx)
	f.client = nil
	f.db = nil
	f.indexed = false
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}
