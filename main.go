package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/saneax/telephone-book/cli/api"
	"github.com/saneax/telephone-book/cli/logger"
	"github.com/saneax/telephone-book/handlers"
)

const title = "Telephone Book"

// Set with -ldflags "-X main.version=... -X main.revision=... -X main.created=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	logger.Options
	api.ServerOptions
	api.RouterOptions
	api.StoreOptions
	api.AuthOptions
}

func main() {
	huma.NewError = handlers.NewError

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		log := logger.New(&options.Options)
		var svc service

		hooks.OnStart(func() {
			ctx := context.Background()

			gate, err := api.LoadCredentials(&options.AuthOptions)
			if err != nil {
				log.Error("could not load credentials", "err", err)
				os.Exit(1)
			}
			store, closeStore, err := api.OpenStore(ctx, &options.StoreOptions)
			if err != nil {
				log.Error("could not open store", "driver", options.StoreDriver, "err", err)
				os.Exit(1)
			}
			svc.closeStore.Store(&closeStore)
			log.Info("store loaded", "driver", options.StoreDriver, "contacts", store.Len(), "users", gate.Len())

			s := api.NewServer(&options.ServerOptions,
				api.NewRouter(&options.RouterOptions, title, version, revision, created,
					log, store, gate, options.AuthRealm),
				log,
			)
			svc.server.Store(s)

			log.Info("listening", "addr", s.Addr)
			err = s.ListenAndServe()
			if err != http.ErrServerClosed {
				log.Error("failed to listen and serve", "err", err)
				err = svc.stop(ctx)
				if err != nil {
					log.Warn("could not stop", "err", err)
				}
			} else {
				log.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := svc.stop(ctx)
			if err != nil {
				log.Warn("could not stop", slog.Any("err", err))
			}
		})
	})

	cli.Root().Use = "telephone-book"
	cli.Root().AddCommand(hashSecretCommand())
	cli.Run()
}

// service holds what OnStart opens so that OnStop can release it.
type service struct {
	server     atomic.Pointer[http.Server]
	closeStore atomic.Pointer[func() error]
}

// stop shuts the server down, waiting for in-flight requests, and only
// then closes the store. Each is released at most once.
func (svc *service) stop(ctx context.Context) error {
	var errs []error
	if s := svc.server.Swap(nil); s != nil {
		err := s.Shutdown(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
	}
	if closeStore := svc.closeStore.Swap(nil); closeStore != nil {
		err := (*closeStore)()
		if err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
