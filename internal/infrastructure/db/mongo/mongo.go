// Package mongo implements the user store on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for the MongoDB user store.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Open connects to MongoDB, pings the server and makes sure the users
// collection carries its unique email index. The returned close function
// disconnects the client.
func Open(ctx context.Context, cfg Config) (*UserRepository, func(context.Context) error, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	repo := NewUserRepository(client.Database(cfg.Database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}

	return repo, client.Disconnect, nil
}
