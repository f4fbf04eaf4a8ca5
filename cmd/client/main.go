package main

import (
	"context"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/draped/internal/buildinfo"
	"github.com/dmitrijs2005/draped/internal/client/cli"
	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/config"
	"github.com/dmitrijs2005/draped/internal/client/metrics"
	"github.com/dmitrijs2005/draped/internal/client/services"
	"github.com/dmitrijs2005/draped/internal/client/session"
	"github.com/dmitrijs2005/draped/internal/client/state"
	"github.com/dmitrijs2005/draped/internal/client/tracker"
	"github.com/dmitrijs2005/draped/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	db, err := client.InitDatabase(ctx, cfg.SessionDBPath)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer db.Close()

	sess := session.NewStore(session.NewSQLitePersister(db))
	if err := sess.Load(ctx); err != nil {
		log.Fatalf("error loading session: %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	api := client.NewHTTPClient(cfg.APIOrigin, sess,
		client.WithLogger(logger.With("component", "gateway")),
		client.WithMetrics(m),
		client.WithTimeout(cfg.RequestTimeout),
		client.WithUploadTimeout(cfg.UploadTimeout),
	)

	console := cli.NewConsole(os.Stdout)
	jobs := state.NewStore()
	tr := tracker.New(api, jobs,
		tracker.WithInterval(cfg.PollInterval),
		tracker.WithLogger(logger.With("component", "tracker")),
		tracker.WithMetrics(m),
		tracker.WithFailureHandler(console.JobFinished),
	)

	as := services.NewAuthService(api, sess, cfg.GoogleClientID, logger)
	js := services.NewJobService(api, sess, jobs, tr, logger)

	app := cli.NewApp(cfg, as, js, reg, logger, console)
	app.Run(ctx)
}
