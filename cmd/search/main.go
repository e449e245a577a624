package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tenant_search/internal/adapters/observability"
	"tenant_search/internal/adapters/rentapi"
	"tenant_search/internal/app"
	"tenant_search/internal/domain"
	"tenant_search/internal/shared"
)

// printer is both the notifier and the navigator of a CLI session.
type printer struct {
	w    io.Writer
	name string
}

func (p printer) Alert(a domain.Alert) {
	fmt.Fprintf(p.w, "[%s] %s: %s\n", p.name, a.Title, a.Message)
}

func (p printer) Navigate(r domain.Route) {
	fmt.Fprintf(p.w, "[%s] -> %s %v\n", p.name, r.Name, r.Params)
}

func main() {
	var (
		f     domain.SearchFilter
		saved string
		wait  time.Duration
	)
	flag.StringVar(&f.City, "city", "", "city")
	flag.StringVar(&f.MaxPrice, "max-price", "", "maximum monthly price")
	flag.StringVar(&f.PropertyType, "type", "", "property type: "+typeNames())
	flag.StringVar(&f.Bedrooms, "bedrooms", "", "minimum bedrooms")
	flag.StringVar(&saved, "saved", "", "YAML file of saved searches; overrides the single-search flags")
	flag.DurationVar(&wait, "wait", 10*time.Second, "how long to wait for ratings")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	client, err := rentapi.New(cfg.RentalBase, rentapi.Options{
		Token:       cfg.RentalToken,
		RPS:         cfg.RentalRPS,
		MaxInFlight: cfg.RentalInFlight,
		Attempts:    cfg.RentalAttempts,
		Timeout:     cfg.RentalTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rental API client")
	}
	agg := app.NewRatingAggregator(app.NewAPIReviews(client))
	newSession := func(name string) *app.Session {
		p := printer{w: os.Stdout, name: name}
		return app.NewSession(name, client, agg, p, p)
	}

	ctx := context.Background()
	searches := []app.SavedSearch{{Name: "search", Filter: f}}
	if saved != "" {
		fh, err := os.Open(saved)
		if err != nil {
			log.Fatal().Err(err).Msg("open saved searches")
		}
		searches, err = app.LoadSavedSearches(fh)
		fh.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("load saved searches")
		}
	}

	results, err := app.RunSaved(ctx, searches, cfg.SavedWorkers, wait, newSession)
	if err != nil {
		log.Error().Err(err).Msg("saved searches interrupted")
	}
	for _, r := range results {
		printResult(os.Stdout, r)
	}
}

func typeNames() string {
	names := make([]string, len(domain.PropertyTypes))
	for i, t := range domain.PropertyTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func printResult(w io.Writer, r app.SavedResult) {
	fmt.Fprintf(w, "== %s (%s, %d listings)\n", r.Name, r.Snapshot.State, len(r.Snapshot.Listings))
	for _, row := range r.Snapshot.Rows {
		cells := make([]string, 0, app.GridColumns)
		for _, c := range row.Cards {
			cells = append(cells, fmt.Sprintf("%s | %s | %s | %s | %s | %s",
				c.Listing.Name, c.Location, c.Rooms, c.Price, c.Landlord, c.Stars))
		}
		if row.Filler {
			cells = append(cells, "")
		}
		fmt.Fprintln(w, strings.Join(cells, "  ||  "))
	}
}
