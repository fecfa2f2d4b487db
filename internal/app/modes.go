package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"betpool/internal/pipeline"
	"betpool/internal/server"
	"betpool/internal/server/handler"
	"betpool/internal/server/ws"
)

// shutdownGrace is how long in-flight HTTP requests get to finish on
// shutdown.
const shutdownGrace = 10 * time.Second

// ServeMode runs the settlement engine behind the HTTP and WebSocket API.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// FullMode runs serve mode plus the journal archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	arch := pipeline.NewArchiver(
		deps.Archiver,
		deps.RecordStore,
		deps.SnapshotStore,
		a.cfg.Archive.RetentionDays,
		a.cfg.Archive.DeleteAfterUpload,
		a.logger,
	)
	g.Go(func() error {
		return arch.RunInterval(ctx, a.cfg.Archive.Interval.Duration)
	})

	a.startHTTPServer(ctx, g, deps, arch)
	return g.Wait()
}

// startHTTPServer adds the HTTP server and the WebSocket hub to the given
// errgroup. The server is shut down gracefully when the context is
// cancelled. arch is nil outside full mode; the manual archive endpoint is
// only registered when it is set.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, arch *pipeline.Archiver) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled")
		return
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(a.logger),
		Teams:   handler.NewTeamHandler(deps.Engine, a.logger),
		Markets: handler.NewMarketHandler(deps.Engine, deps.OddsCache, deps.SnapshotStore, a.logger),
		Bets:    handler.NewBetHandler(deps.Engine, deps.OddsCache, a.logger),
		Fees:    handler.NewFeesHandler(deps.Engine, a.logger),
		Records: handler.NewRecordsHandler(deps.RecordStore, deps.SignalBus, a.logger),
		Admins:  handler.NewAdminHandler(deps.Engine, a.logger),
	}
	if arch != nil {
		handlers.Archive = handler.NewArchiveHandler(arch, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
