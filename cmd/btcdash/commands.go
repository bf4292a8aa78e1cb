package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/btcdash/internal/config"
	"github.com/mtlprog/btcdash/internal/dashboard"
	"github.com/mtlprog/btcdash/internal/database"
	"github.com/mtlprog/btcdash/internal/export"
	"github.com/mtlprog/btcdash/internal/external"
	"github.com/mtlprog/btcdash/internal/jobs"
	"github.com/mtlprog/btcdash/internal/store"
	"github.com/mtlprog/btcdash/internal/worker"
)

const defaultExportFile = "btc_prices.xlsx"

// newApp builds the CLI. loadConfig runs only once a command action starts,
// so help output never reads the environment.
func newApp(loadConfig func() config.Config) *cli.App {
	return &cli.App{
		Name:  "btcdash",
		Usage: "BTC price history, daily refresh and dashboard",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the dashboard HTTP server",
				Action: func(c *cli.Context) error {
					return serve(c.Context, loadConfig())
				},
			},
			{
				Name:  "load",
				Usage: "drop the price table and reload the full history",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
				Action: func(c *cli.Context) error {
					var confirm jobs.Confirmer = jobs.PromptConfirmer{In: os.Stdin, Out: os.Stdout}
					if c.Bool("yes") {
						confirm = jobs.AlwaysConfirm
					}
					return load(c.Context, loadConfig(), confirm)
				},
			},
			{
				Name:  "update",
				Usage: "fetch the latest price and store it",
				Action: func(c *cli.Context) error {
					return update(c.Context, loadConfig())
				},
			},
			{
				Name:  "export",
				Usage: "export the stored history to an xlsx file or Google Sheets",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "xlsx", Usage: "write the history to `FILE`"},
					&cli.BoolFlag{Name: "sheets", Usage: "write the history to GOOGLE_SHEETS_ID"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("xlsx")
					if path == "" && !c.Bool("sheets") {
						path = defaultExportFile
					}
					return exportHistory(c.Context, loadConfig(), path, c.Bool("sheets"))
				},
			},
		},
	}
}

func openPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, cli.Exit("DATABASE_URL is required", 1)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

func newSource(cfg config.Config) (*external.CoinGeckoClient, error) {
	plan, err := external.ParseAPIPlan(cfg.CoinGeckoAPIPlan, cfg.CoinGeckoURL)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	return external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey, plan, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax), nil
}

func newUpdater(cfg config.Config, repo store.Repository) (*jobs.Updater, error) {
	policy, err := jobs.ParseDatePolicy(cfg.UpdateDatePolicy)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	return jobs.NewUpdater(source, repo, cfg.Symbol, policy), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := store.NewPgRepository(pool)
	updater, err := newUpdater(cfg, repo)
	if err != nil {
		return err
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	var workerDone <-chan struct{}
	if cfg.UpdateWorkerInterval > 0 {
		workerDone = worker.NewUpdateWorker(updater, cfg.UpdateWorkerInterval).Start(workerCtx)
	} else {
		closed := make(chan struct{})
		close(closed)
		workerDone = closed
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, update endpoint is unprotected")
	}

	srv := dashboard.NewServer(cfg.HTTPPort, repo, updater, cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// The pool closes on return; let an in-flight refresh finish first.
	stopWorker()
	<-workerDone

	slog.Info("Shutdown complete")
	return runErr
}

func load(ctx context.Context, cfg config.Config, confirm jobs.Confirmer) error {
	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	if err := source.CheckRange(cfg.HistoryStart, time.Now()); err != nil {
		return cli.Exit(fmt.Sprintf("load refused, price table left as is: %v "+
			"(set COINGECKO_API_PLAN=pro with a pro key, or a later HISTORY_START)", err), 1)
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := jobs.NewLoader(source, store.NewPgRepository(pool), cfg.Symbol, cfg.HistoryStart)
	result, err := loader.Run(ctx, confirm)
	switch {
	case errors.Is(err, jobs.ErrNotConfirmed):
		fmt.Println("Load cancelled, nothing changed.")
		return nil
	case err != nil:
		return cli.Exit(fmt.Sprintf("load failed: %v", err), 1)
	}

	if result.First == nil {
		fmt.Println("No prices returned, the price table is empty.")
		return nil
	}
	fmt.Printf("Loaded %d days. First record: %s price %s value %s\n",
		result.Written,
		result.First.DateString(),
		result.First.PriceUSD.StringFixed(2),
		result.First.ValueUSD.StringFixed(2))
	return nil
}

func update(ctx context.Context, cfg config.Config) error {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	updater, err := newUpdater(cfg, store.NewPgRepository(pool))
	if err != nil {
		return err
	}

	result, err := updater.Run(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("update failed: %v", err), 1)
	}
	fmt.Printf("Stored %s price %s value %s\n",
		result.Record.DateString(),
		result.Record.PriceUSD.StringFixed(2),
		result.Record.ValueUSD.StringFixed(2))
	return nil
}

func exportHistory(ctx context.Context, cfg config.Config, path string, toSheets bool) error {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := export.NewService(store.NewPgRepository(pool))

	if path != "" {
		if err := exportXLSX(ctx, svc, path); err != nil {
			return cli.Exit(fmt.Sprintf("xlsx export failed: %v", err), 1)
		}
	}

	if toSheets {
		if cfg.SheetsID == "" || cfg.GoogleCredentials == "" {
			return cli.Exit("GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets", 1)
		}
		w, err := export.NewSheetsWriter(ctx, cfg.SheetsID, cfg.GoogleCredentials)
		if err != nil {
			return cli.Exit(fmt.Sprintf("sheets export failed: %v", err), 1)
		}
		n, err := svc.Export(ctx, w)
		if err != nil {
			return cli.Exit(fmt.Sprintf("sheets export failed: %v", err), 1)
		}
		fmt.Printf("Exported %d rows to spreadsheet %s\n", n, cfg.SheetsID)
	}
	return nil
}

func exportXLSX(ctx context.Context, svc *export.Service, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	n, err := svc.Export(ctx, export.NewXLSXWriter(f))
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d rows to %s\n", n, path)
	return nil
}
