package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/barhq/venuestock/internal/cache"
	"github.com/barhq/venuestock/internal/repository/postgres"
	"github.com/barhq/venuestock/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newVenueFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "venue",
		Usage:    "Venue identifier",
		Required: true,
	}
}

func newDepartmentFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "department",
		Usage: "Restrict to a single department",
	}
}

func newRoundToPackFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "round-to-pack",
		Usage: "Round suggested quantities up to the item's pack multiple",
	}
}

func openDB(c *cli.Context) (*postgres.DB, error) {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return postgres.WrapDB(db), nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Compute variance, build reorder suggestions and materialize draft orders",
		Commands: []*cli.Command{
			{
				Name:  "variance",
				Usage: "Print the venue's variance report",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newVenueFlag(),
					newDepartmentFlag(),
				},
				Action: runVariance,
			},
			{
				Name:  "suggest",
				Usage: "Print reorder suggestions grouped by supplier",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newVenueFlag(),
					newDepartmentFlag(),
					newRoundToPackFlag(),
				},
				Action: runSuggest,
			},
			{
				Name:  "materialize",
				Usage: "Turn reorder suggestions into draft orders, one per supplier",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newVenueFlag(),
					newDepartmentFlag(),
					newRoundToPackFlag(),
					&cli.StringFlag{
						Name:  "created-by",
						Usage: "Author recorded on created draft orders",
						Value: "cli",
					},
				},
				Action: runMaterialize,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runVariance(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewVarianceService(
		postgres.NewCatalogRepository(db),
		postgres.NewStockTakeRepository(db),
		cache.NewNoopVarianceCache(),
		nil,
	)

	report, err := svc.Report(c.Context, c.String("venue"), c.String("department"))
	if err != nil {
		return fmt.Errorf("failed to compute variance report: %w", err)
	}
	return printJSON(report)
}

func runSuggest(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewReplenishService(
		postgres.NewCatalogRepository(db),
		postgres.NewStockTakeRepository(db),
	)

	grouped, err := svc.BuildSuggestions(c.Context, c.String("venue"), c.String("department"), c.Bool("round-to-pack"))
	if err != nil {
		return fmt.Errorf("failed to build suggestions: %w", err)
	}
	return printJSON(grouped)
}

func runMaterialize(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	replenish := service.NewReplenishService(
		postgres.NewCatalogRepository(db),
		postgres.NewStockTakeRepository(db),
	)
	materializer := service.NewMaterializer(
		postgres.NewOrderRepository(db),
		service.DefaultRetryPolicy(),
	)

	venueID := c.String("venue")
	grouped, err := replenish.BuildSuggestions(c.Context, venueID, c.String("department"), c.Bool("round-to-pack"))
	if err != nil {
		return fmt.Errorf("failed to build suggestions: %w", err)
	}

	result, err := materializer.Materialize(c.Context, venueID, c.String("created-by"), grouped)
	if err != nil {
		return fmt.Errorf("failed to materialize draft orders: %w", err)
	}

	log.Printf("created %d draft orders (%d skipped, %d failed)",
		len(result.Created), len(result.Skipped), len(result.Failed))
	return printJSON(result)
}
