// cmd/daily/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/optistock/replenish/internal/cache"
	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/engine"
	"github.com/optistock/replenish/internal/ingest"
	"github.com/optistock/replenish/internal/repository"
	"github.com/optistock/replenish/internal/repository/postgres"
	"github.com/optistock/replenish/internal/rules"
	"github.com/optistock/replenish/internal/service"
	"github.com/optistock/replenish/internal/storage"
	"github.com/optistock/replenish/pkg/logger"
)

func newDateFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: "Run date in YYYY-MM-DD format",
		Value: time.Now().UTC().Format("2006-01-02"),
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory with per-product history files; uses the database when empty",
		EnvVars: []string{"DATA_DIR"},
	}
}

// buildOrchestrator wires the providers. A data directory switches the run
// to file mode so the engine can be used without a database.
func buildOrchestrator(cfg *config.Config, dataDir string) (*engine.Orchestrator, func(), error) {
	catalog := rules.NewCatalog()

	if dataDir != "" {
		provider := ingest.NewFileProvider(dataDir)
		return engine.NewOrchestrator(cfg.Engine, provider, provider, provider, catalog), func() {}, nil
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	productRepo := repository.NewProductRepository(db.DB)
	seriesRepo := repository.NewSeriesRepository(db.DB)
	orchestrator := engine.NewOrchestrator(cfg.Engine, productRepo, seriesRepo, productRepo, catalog)
	return orchestrator, func() { db.Close() }, nil
}

func runBatch(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	runDate, err := time.Parse("2006-01-02", c.String("date"))
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	orchestrator, cleanup, err := buildOrchestrator(cfg, c.String("data-dir"))
	if err != nil {
		return err
	}
	defer cleanup()

	decisionCache, err := cache.NewDecisionCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize decision cache: %w", err)
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		store, err := storage.NewLocalClient(cfg.Archive.Dir)
		if err != nil {
			return fmt.Errorf("failed to initialize archive storage: %w", err)
		}
		archiver = storage.NewArchiver(store)
	}

	decisionService := service.NewDecisionService(orchestrator, decisionCache, archiver)

	batch, err := decisionService.Run(c.Context, runDate)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}

func runForecast(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	asOf, err := time.Parse("2006-01-02", c.String("date"))
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	code := c.Args().First()
	if code == "" {
		return fmt.Errorf("product code argument is required")
	}

	orchestrator, cleanup, err := buildOrchestrator(cfg, c.String("data-dir"))
	if err != nil {
		return err
	}
	defer cleanup()

	forecast, err := orchestrator.ForecastProduct(c.Context, code, asOf)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(forecast)
}

// runImport loads the file exports into Postgres so subsequent runs can use
// database mode.
func runImport(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	dataDir := c.String("data-dir")
	if dataDir == "" {
		return fmt.Errorf("--data-dir is required for import")
	}

	asOf, err := time.Parse("2006-01-02", c.String("date"))
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	provider := ingest.NewFileProvider(dataDir)
	historyRepo := repository.NewHistoryRepository(db)

	products, err := provider.TrackedProducts(c.Context)
	if err != nil {
		return err
	}
	if err := historyRepo.UpsertProducts(c.Context, products); err != nil {
		return err
	}

	from := asOf.AddDate(-1, 0, 0)
	imported := 0
	for _, product := range products {
		series, err := provider.Series(c.Context, product.Code, from, asOf)
		if err != nil {
			logger.Log.Warn().Err(err).Str("product", product.Code).Msg("skipping product import")
			continue
		}
		if err := historyRepo.ReplaceHistory(c.Context, series); err != nil {
			return err
		}
		imported++
	}

	logger.Log.Info().Int("products", imported).Msg("history import complete")
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "daily",
		Usage: "Run the daily forecast-to-purchase decision batch",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the full daily batch and print the decision report",
				Flags:  []cli.Flag{newDateFlag(), newDataDirFlag()},
				Action: runBatch,
			},
			{
				Name:      "forecast",
				Usage:     "Forecast a single product",
				ArgsUsage: "<product-code>",
				Flags:     []cli.Flag{newDateFlag(), newDataDirFlag()},
				Action:    runForecast,
			},
			{
				Name:   "import",
				Usage:  "Import product and history exports into the database",
				Flags:  []cli.Flag{newDateFlag(), newDataDirFlag()},
				Action: runImport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("daily run failed")
	}
}
