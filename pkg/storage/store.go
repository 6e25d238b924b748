package storage

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"form-intake/pkg/clients/airtable"
	"form-intake/pkg/clients/firestore"
	"form-intake/pkg/clients/mongo"
	"form-intake/pkg/clients/postgres"
	"form-intake/pkg/clients/sqlite"
	"form-intake/pkg/config"
	"form-intake/pkg/credentials"
	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
)

// Store is the user record store. Put overwrites the record at rec.ID;
// Count returns the number of stored records. Every call goes to the
// backend; nothing is cached.
type Store interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Open builds the backend selected by cfg.StoreBackend. The firestore
// backend fails here when the credential bundle is missing or malformed.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		backend Store
		err     error
	)

	switch cfg.StoreBackend {
	case config.BackendFirestore:
		var sa *credentials.ServiceAccount
		sa, err = credentials.LoadServiceAccount(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		backend, err = firestore.NewClient(ctx, sa, cfg.FirestoreProjectID, cfg.StoreCollection)
	case config.BackendMongo:
		backend, err = mongo.NewClient(ctx, cfg.StoreURL, cfg.StoreDatabase, cfg.StoreCollection)
	case config.BackendPostgres:
		backend, err = postgres.NewClient(ctx, cfg.StoreURL, cfg.StoreCollection)
	case config.BackendSQLite:
		backend, err = sqlite.NewClient(cfg.StoreURL, cfg.StoreCollection)
	case config.BackendAirtable:
		backend = airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.StoreCollection)
	case config.BackendMemory:
		backend = NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening %s store: %w", cfg.StoreBackend, err)
	}

	return Instrument(cfg.StoreBackend, backend), nil
}

// Instrument wraps a backend so that failures surface as storage errors and
// every call is timed.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

type instrumented struct {
	backend string
	next    Store
}

func (i *instrumented) Put(ctx context.Context, rec models.UserRecord) error {
	start := time.Now()
	err := i.next.Put(ctx, rec)
	i.observe("put", start, err)
	if err != nil {
		return apperrors.StorageError("put", err)
	}
	return nil
}

func (i *instrumented) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := i.next.Count(ctx)
	i.observe("count", start, err)
	if err != nil {
		return 0, apperrors.StorageError("count", err)
	}
	return n, nil
}

func (i *instrumented) Close() error {
	if err := i.next.Close(); err != nil {
		return apperrors.StorageError("close", err)
	}
	return nil
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		log.WithField("prefix", "storage").
			WithField("backend", i.backend).
			WithField("op", op).
			WithError(err).
			Error("store call failed")
	}
	storeOps.WithLabelValues(i.backend, op, result).Inc()
	storeDuration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}
