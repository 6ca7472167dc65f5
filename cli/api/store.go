package api

import (
	"context"
	"fmt"

	"github.com/saneax/telephone-book/datastores"
)

type StoreOptions struct {
	StoreDriver string `doc:"keep contacts in memory, or persist them with file, sqlite or postgres" default:"memory"`
	StoreDSN    string `doc:"path for file and sqlite, connection string for postgres"`
}

// OpenStore returns the store described by options and a function
// releasing its backend.
func OpenStore(ctx context.Context, options *StoreOptions) (*datastores.ContactsInmem, func() error, error) {
	var (
		persister datastores.Persister
		closer    = func() error { return nil }
	)

	switch options.StoreDriver {
	case "", "memory":
	case "file":
		if options.StoreDSN == "" {
			return nil, nil, fmt.Errorf("store driver %q requires a dsn", options.StoreDriver)
		}
		persister = &datastores.ContactsFile{Path: options.StoreDSN}
	case "sqlite":
		if options.StoreDSN == "" {
			return nil, nil, fmt.Errorf("store driver %q requires a dsn", options.StoreDriver)
		}
		db, err := datastores.OpenSQLite(ctx, options.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		persister, closer = db, db.Close
	case "postgres":
		db, err := datastores.OpenPostgres(ctx, options.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		persister, closer = db, db.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", options.StoreDriver)
	}

	store, err := datastores.NewContactsInmem(ctx, persister)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return store, closer, nil
}
