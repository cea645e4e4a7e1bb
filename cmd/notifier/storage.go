package main

import (
	"context"
	"fmt"

	"github.com/onepost/notifier/internal/persistence"
	"github.com/onepost/notifier/internal/persistence/gormdb"
	"github.com/onepost/notifier/internal/persistence/memory"
	"github.com/onepost/notifier/internal/persistence/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type closeFunc func(ctx context.Context) error

func openPersistenceEngine(logger *zap.Logger, settings Settings) (persistence.Engine, closeFunc, error) {
	noop := func(context.Context) error { return nil }

	switch settings.StorageDriver {
	case StorageDriverMongoDB:
		client, err := mongo.Connect(options.Client().ApplyURI(settings.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
		}

		logger.Info("using mongodb persistence engine",
			zap.String("database", settings.MongoDatabase))

		engine := mongodb.NewPersistenceEngine(client, settings.MongoDatabase, settings.NotificationRetention)

		return engine, client.Disconnect, nil
	case StorageDriverMySQL:
		db, err := gormdb.OpenMySQL(settings.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mysql: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}

		logger.Info("using mysql persistence engine")

		return gormdb.NewPersistenceEngine(db), func(context.Context) error { return sqlDB.Close() }, nil
	default:
		logger.Warn("using in-memory persistence engine, notifications are lost on restart")

		return memory.NewPersistenceEngine(), noop, nil
	}
}
