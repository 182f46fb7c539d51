package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users collection with indexes",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "users", []mongo.IndexModel{
					{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
					{Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "status", Value: 1}}},
					{Keys: bson.D{{Key: "last_active_at", Value: -1}}},
				})
			},
			Down: dropCollection("users"),
		},
		{
			Version:     2,
			Description: "Create businesses collection with indexes",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "businesses", []mongo.IndexModel{
					{Keys: bson.D{{Key: "owner_id", Value: 1}}},
					{Keys: bson.D{{Key: "status", Value: 1}}},
					{Keys: bson.D{{Key: "location.lat", Value: 1}, {Key: "location.lng", Value: 1}}},
				})
			},
			Down: dropCollection("businesses"),
		},
		{
			Version:     3,
			Description: "Create deals collection with indexes",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "deals", []mongo.IndexModel{
					{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "status", Value: 1}}},
					{Keys: bson.D{{Key: "status", Value: 1}, {Key: "starts_at", Value: 1}, {Key: "expires_at", Value: 1}}},
					{Keys: bson.D{{Key: "created_at", Value: -1}}},
				})
			},
			Down: dropCollection("deals"),
		},
		{
			Version:     4,
			Description: "Create follows collection with unique user/business pair",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "follows", []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "business_id", Value: 1}}, Options: options.Index().SetUnique(true)},
					{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "status", Value: 1}}},
				})
			},
			Down: dropCollection("follows"),
		},
		{
			Version:     5,
			Description: "Create bookmarks collection with unique user/deal pair",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "bookmarks", []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "deal_id", Value: 1}}, Options: options.Index().SetUnique(true)},
				})
			},
			Down: dropCollection("bookmarks"),
		},
		{
			Version:     6,
			Description: "Create redemptions collection with indexes",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "redemptions", []mongo.IndexModel{
					{Keys: bson.D{{Key: "deal_id", Value: 1}}},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "redeemed_at", Value: -1}}},
					{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "redeemed_at", Value: -1}}},
				})
			},
			Down: dropCollection("redemptions"),
		},
		{
			Version:     7,
			Description: "Create devices collection with unique user/token pair",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "devices", []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}},
				})
			},
			Down: dropCollection("devices"),
		},
		{
			Version:     8,
			Description: "Create notifications collection with indexes",
			Up: func(db *mongo.Database) error {
				return createIndexes(db, "notifications", []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
				})
			},
			Down: dropCollection("notifications"),
		},
		{
			Version:     9,
			Description: "Create broadcasts and link_clicks collections",
			Up: func(db *mongo.Database) error {
				err := createIndexes(db, "broadcasts", []mongo.IndexModel{
					{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
				})
				if err != nil {
					return err
				}
				return createIndexes(db, "link_clicks", []mongo.IndexModel{
					{Keys: bson.D{{Key: "broadcast_id", Value: 1}, {Key: "url", Value: 1}}},
					{Keys: bson.D{{Key: "broadcast_id", Value: 1}, {Key: "user_id", Value: 1}}},
				})
			},
			Down: func(db *mongo.Database) error {
				if err := db.Collection("broadcasts").Drop(context.Background()); err != nil {
					return err
				}
				return db.Collection("link_clicks").Drop(context.Background())
			},
		},
	}
}

func createIndexes(db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	return err
}

func dropCollection(name string) func(*mongo.Database) error {
	return func(db *mongo.Database) error {
		return db.Collection(name).Drop(context.Background())
	}
}
