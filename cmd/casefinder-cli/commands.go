package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder"
	"github.com/kailas-cloud/casefinder/internal/version"
)

// library is the part of *casefinder.Client the commands use.
type library interface {
	FindCases(ctx context.Context, factPattern string) ([]casefinder.CaseResult, error)
	Lookup(ctx context.Context, query string) ([]casefinder.CaseResult, bool)
	ClearExpired(ctx context.Context) casefinder.SweepStats
	ExportParquet(ctx context.Context, w io.Writer) (int, error)
	Close()
}

// globalFlags holds options shared by every command.
type globalFlags struct {
	driver   string
	dir      string
	addr     string
	password string
	origin   string
	ttl      time.Duration
	verbose  bool
}

type opener func(ctx context.Context, g *globalFlags) (library, error)

func openLibrary(ctx context.Context, g *globalFlags) (library, error) {
	opts := []casefinder.Option{casefinder.WithTTL(g.ttl)}

	switch g.driver {
	case "file", "":
		opts = append(opts, casefinder.WithFileCache(g.dir))
	case "badger":
		opts = append(opts, casefinder.WithBadger(g.dir))
	case "redis":
		opts = append(opts, casefinder.WithRedis(g.addr, g.password))
	case "valkey":
		opts = append(opts, casefinder.WithValkey(g.addr, g.password))
	default:
		return nil, fmt.Errorf("unknown driver %q (file, badger, redis, valkey)", g.driver)
	}
	if g.origin != "" {
		opts = append(opts, casefinder.WithOrigin(g.origin))
	}
	if g.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		opts = append(opts, casefinder.WithLogger(l))
	}
	return casefinder.New(ctx, opts...)
}

// newRootCmd wires the cobra root command.
func newRootCmd(open opener) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "casefinder-cli",
		Short:         "Find Indian case law similar to a fact pattern",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.driver, "driver", envOr("CASEFINDER_DRIVER", "file"), "cache driver: file, badger, redis, valkey")
	pf.StringVar(&g.dir, "dir", envOr("CASEFINDER_CACHE_DIR", "cache"), "cache directory for file and badger drivers")
	pf.StringVar(&g.addr, "addr", envOr("CASEFINDER_CACHE_ADDR", "localhost:6379"), "redis/valkey address")
	pf.StringVar(&g.password, "password", os.Getenv("CASEFINDER_CACHE_PASSWORD"), "redis/valkey password")
	pf.StringVar(&g.origin, "origin", "", "search origin (default https://indiankanoon.org)")
	pf.DurationVar(&g.ttl, "ttl", 7*24*time.Hour, "cache entry lifetime")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log library activity to stderr")

	root.AddCommand(newSearchCommand(g, open))
	root.AddCommand(newCacheCommand(g, open))
	root.AddCommand(newVersionCommand())
	return root
}

func newSearchCommand(g *globalFlags, open opener) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [fact pattern]",
		Short: "Search for cases similar to a fact pattern",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer lib.Close()

			cases, err := lib.FindCases(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return renderCases(cmd.OutOrStdout(), cases, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newCacheCommand(g *globalFlags, open opener) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the result cache",
	}

	var asJSON bool
	getCmd := &cobra.Command{
		Use:   "get [query]",
		Short: "Show cached results for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer lib.Close()

			cases, ok := lib.Lookup(cmd.Context(), strings.Join(args, " "))
			if !ok {
				return errors.New("no cached results for this query")
			}
			return renderCases(cmd.OutOrStdout(), cases, asJSON)
		},
	}
	getCmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired and unreadable cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer lib.Close()

			stats := lib.ClearExpired(cmd.Context())
			if stats.ListFailed {
				return errors.New("could not list cache entries")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d entries, removed %d expired and %d corrupt\n",
				stats.Scanned, stats.Expired, stats.Corrupt)
			return nil
		},
	}

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all cached results to a parquet file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer lib.Close()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			n, err := lib.ExportParquet(cmd.Context(), f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", n, out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "cases.parquet", "output file")

	cacheCmd.AddCommand(getCmd, purgeCmd, exportCmd)
	return cacheCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "casefinder-cli", version.String())
		},
	}
}

func renderCases(w io.Writer, cases []casefinder.CaseResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if cases == nil {
			cases = []casefinder.CaseResult{}
		}
		return enc.Encode(cases)
	}
	if len(cases) == 0 {
		fmt.Fprintln(w, "No matching cases.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tTITLE\tURL")
	for i, c := range cases {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\n", i+1, c.SimilarityScore, c.Title, c.URL)
	}
	return tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
