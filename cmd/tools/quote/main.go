package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// quote prices product codes against a catalog file without starting the API.
// Codes come from the arguments, or from a JSON array on stdin when none are
// given. Exit code 0 = ok, 1 = invalid input, 2 = other error.
func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	catalogPath := fs.String("catalog", "", "product catalog JSON file (default: built-in catalog)")
	rulesPath := fs.String("rules", "", "pricing rules TOML file")
	strategy := fs.String("strategy", "", "bulk-buy strategy: grouped or ranked")
	verbose := fs.Bool("v", false, "log at debug level to stderr")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	codes, err := readCodes(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "quote: read codes: %v\n", err)
		return 1
	}

	var src catalog.Source = catalog.EmbeddedSource{}
	if *catalogPath != "" {
		src = catalog.FileSource{Path: *catalogPath}
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return 2
	}
	rules, err := config.LoadRules(*rulesPath, *strategy)
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return 2
	}
	engine, err := pricing.NewEngine(rules)
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return 2
	}
	svc, err := checkout.NewService(checkout.ServiceConfig{Catalog: cat, Engine: engine, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return 2
	}

	q, err := svc.Quote(logger.WithContext(ctx), codes)
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q.View()); err != nil {
		fmt.Fprintf(stderr, "quote: write: %v\n", err)
		return 2
	}
	return 0
}

func readCodes(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if stdin == nil {
		return nil, errUsage
	}
	var codes []string
	if err := json.NewDecoder(stdin).Decode(&codes); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return codes, nil
}
