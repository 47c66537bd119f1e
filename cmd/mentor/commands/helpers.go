package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/rag"
	"github.com/studyloop/mentor-go/internal/snapshot"
)

// appContext bundles the knowledge-base components shared by the CLI
// commands: the fail-soft provider gateway, the in-memory document store,
// the search façade, and the answer engine.
type appContext struct {
	gateway  *gateway.Gateway
	store    *knowledge.Store
	searcher *knowledge.Searcher
	engine   *rag.Engine
	snap     *snapshot.Store // nil when persistence is disabled
}

// buildApp wires the knowledge store, searcher, and answer engine around an
// already-constructed gateway, restoring any persisted snapshot into the
// store. The returned cleanup closes the snapshot database.
func buildApp(ctx context.Context, log *slog.Logger, gw *gateway.Gateway) (*appContext, func(), error) {
	store, err := knowledge.NewStore(gw, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create knowledge store: %w", err)
	}

	app := &appContext{gateway: gw, store: store, snap: openSnapshot(log)}
	cleanup := func() {
		if app.snap != nil {
			_ = app.snap.Close()
		}
	}

	if app.snap != nil {
		docs, loadErr := app.snap.Load(ctx)
		switch {
		case loadErr != nil:
			log.Warn("snapshot: load failed, starting empty", slog.Any("error", loadErr))
		case len(docs) > 0:
			if impErr := store.Import(ctx, docs); impErr != nil {
				log.Warn("snapshot: restore failed, starting empty", slog.Any("error", impErr))
			} else {
				log.Info("snapshot: knowledge base restored", slog.Int("documents", len(docs)))
			}
		}
	}

	searcher, err := knowledge.NewSearcher(store, gw, log)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create searcher: %w", err)
	}
	app.searcher = searcher
	app.engine = rag.NewEngine(searcher, gw, log)

	return app, cleanup, nil
}

// openSnapshot resolves the snapshot database path and opens it.
// MENTOR_SNAPSHOT_DB overrides the default path (~/.mentor/knowledge.db);
// set it to "disabled" to skip persistence entirely. Open failures are
// non-fatal — the store then runs memory-only.
func openSnapshot(log *slog.Logger) *snapshot.Store {
	dbPath := os.Getenv("MENTOR_SNAPSHOT_DB")
	if dbPath == "disabled" {
		log.Info("snapshot: disabled via MENTOR_SNAPSHOT_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = snapshot.DefaultDBPath()
		if err != nil {
			log.Warn("snapshot: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}

	snap, err := snapshot.Open(dbPath)
	if err != nil {
		log.Warn("snapshot: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("snapshot: store opened", slog.String("path", dbPath))
	return snap
}

// save persists the current store contents to the snapshot database.
// A nil snapshot store makes this a no-op.
func (a *appContext) save(ctx context.Context, log *slog.Logger) {
	if a.snap == nil {
		return
	}
	if err := a.snap.Save(ctx, a.store.Export()); err != nil {
		log.Warn("snapshot: save failed", slog.Any("error", err))
	}
}

// getEnvOrDefault returns the env var value, or fallback when unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
