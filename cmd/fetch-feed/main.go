package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/service"
)

// fetch-feed pulls one aggregator feed and prints it, without touching the catalog.
func main() {
	source := flag.String("source", string(models.SourceMobiMatter), "aggregator to fetch (mobimatter, airalo)")
	normalized := flag.Bool("normalized", false, "print normalized wholesale products instead of the raw payload")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var agg service.Aggregator
	for _, a := range service.NewAggregators(cfg) {
		if string(a.Source()) == *source {
			agg = a
		}
	}
	if agg == nil {
		log.Fatal().Str("source", *source).Msg("aggregator not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := agg.FetchProducts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}
	log.Info().
		Int("products", len(res.Products)).
		Int("rejected", res.Rejected).
		Msg("feed fetched")

	if *normalized {
		b, _ := json.MarshalIndent(res.Products, "", "  ")
		fmt.Println(string(b))
		return
	}
	var out bytes.Buffer
	if err := json.Indent(&out, res.Raw, "", "  "); err != nil {
		os.Stdout.Write(res.Raw)
		return
	}
	fmt.Println(out.String())
}
