package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvoloshin/trip-planner/internal/airtable"
	"github.com/nvoloshin/trip-planner/internal/config"
	"github.com/nvoloshin/trip-planner/internal/currency"
	"github.com/nvoloshin/trip-planner/internal/logger"
	"github.com/nvoloshin/trip-planner/internal/schema"
	"github.com/nvoloshin/trip-planner/internal/views"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "show":
		runShow(log)
	case "rate":
		runRate(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Trip Planner CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  show      Print one projected table (resort|flight|extra|family)")
	fmt.Println("  rate      Print the configured USD→EUR conversion rate")
	fmt.Println("  help      Show this help")
}

func runShow(log zerolog.Logger) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	display := fs.String("currency", "", "display currency (USD or EUR, defaults to the configured preference)")
	fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cli show [-currency USD|EUR] <resort|flight|extra|family>")
		os.Exit(1)
	}
	kind := views.Kind(fs.Arg(0))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	table := cfg.Table(string(kind))
	if table == "" {
		log.Fatal().Str("kind", fs.Arg(0)).Msg("Unknown record kind")
	}

	cur := *display
	if cur == "" {
		cur = cfg.DefaultCurrency
	}
	if !currency.Supported(cur) {
		log.Fatal().Str("currency", cur).Msg("Unsupported display currency")
	}

	aliasTable, err := schema.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load alias table")
	}
	if cfg.AliasFile != "" {
		if aliasTable, err = schema.LoadFile(cfg.AliasFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load alias table override")
		}
	}

	conv := currency.NewConverter(cfg.USDToEUR)
	projector := views.NewProjector(aliasTable, conv)
	fetcher := airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBaseID, 10*time.Second, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := fetcher.FetchTable(ctx, table)
	if err != nil {
		log.Fatal().Err(err).Str("table", table).Msg("Failed to fetch table")
	}
	if len(records) == 0 {
		fmt.Printf("No records found in %s.\n", table)
		return
	}

	rows := projector.ProjectAll(kind, records, cur)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tORIGINAL\tIN %s\tDETAILS\n", cur)
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Name, row.Original, row.Converted, details(row))
	}
	w.Flush()
}

func runRate(log zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	conv := currency.NewConverter(cfg.USDToEUR)
	fmt.Printf("1 USD = %.4f EUR\n", conv.Rate())
}

// details picks the most useful secondary column per kind.
func details(row views.Row) string {
	switch views.Kind(row.Kind) {
	case views.KindResort:
		if row.Families != "" {
			return "families: " + row.Families
		}
		return row.Perks
	case views.KindFlight:
		if row.Airline != "" {
			return row.Airline
		}
		return row.Origin
	case views.KindExtra:
		return row.Notes
	case views.KindFamily:
		return row.Members
	}
	return ""
}
