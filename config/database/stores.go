package database

import (
	"context"
	"database/sql"
	"fmt"

	"smartpen/config"
	bluetoothModel "smartpen/internal/bluetooth/model"
	noteModel "smartpen/internal/note/model"
	userModel "smartpen/internal/user/model"
	"smartpen/store"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collection names, shared by the SQL tables and the Mongo collections.
const (
	UsersCollection     = "users"
	NotesCollection     = "notes"
	BluetoothCollection = "bluetooth_data"
)

// Stores holds one collection per document kind plus whatever connection
// backs them. Close releases that connection.
type Stores struct {
	Users    store.Collection[userModel.User]
	Notes    store.Collection[noteModel.Note]
	Sessions store.Collection[bluetoothModel.Session]

	close func(context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open builds the collections for cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return NewMemoryStores(), nil

	case config.DriverPostgres:
		db, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgresStores(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		return NewMongoStores(client.Database(cfg.MongoDatabase), client.Disconnect), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func NewMemoryStores() *Stores {
	return &Stores{
		Users:    store.NewMemory[userModel.User]("id", "username", "email"),
		Notes:    store.NewMemory[noteModel.Note]("id"),
		Sessions: store.NewMemory[bluetoothModel.Session]("id"),
	}
}

// NewPostgresStores expects the schema to be migrated already.
func NewPostgresStores(db *sql.DB) (*Stores, error) {
	users, err := store.NewPostgres[userModel.User](db, UsersCollection)
	if err != nil {
		return nil, err
	}
	notes, err := store.NewPostgres[noteModel.Note](db, NotesCollection)
	if err != nil {
		return nil, err
	}
	sessions, err := store.NewPostgres[bluetoothModel.Session](db, BluetoothCollection)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Users:    users,
		Notes:    notes,
		Sessions: sessions,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}

func NewMongoStores(db *mongo.Database, closeFn func(context.Context) error) *Stores {
	return &Stores{
		Users:    store.NewMongo[userModel.User](db.Collection(UsersCollection)),
		Notes:    store.NewMongo[noteModel.Note](db.Collection(NotesCollection)),
		Sessions: store.NewMongo[bluetoothModel.Session](db.Collection(BluetoothCollection)),
		close:    closeFn,
	}
}

// EnsureMongoIndexes creates the unique indexes the services rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if err := store.EnsureUniqueIndexes(ctx, db.Collection(UsersCollection), "id", "username", "email"); err != nil {
		return err
	}
	if err := store.EnsureUniqueIndexes(ctx, db.Collection(NotesCollection), "id"); err != nil {
		return err
	}
	return store.EnsureUniqueIndexes(ctx, db.Collection(BluetoothCollection), "id")
}
