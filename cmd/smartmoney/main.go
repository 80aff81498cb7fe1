// Command smartmoney is the operator CLI: refresh sources, rebuild rankings,
// query the derived store, or run the scheduler daemon.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/smartmoney/internal/collectors"
	"github.com/aristath/smartmoney/internal/config"
	"github.com/aristath/smartmoney/internal/di"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/pipeline"
	"github.com/aristath/smartmoney/pkg/logger"
)

// Exit codes for refresh: fetch failures and parse failures are distinct so
// cron wrappers can alert differently.
const (
	exitOK      = 0
	exitErr     = 1
	exitFetch   = 2
	exitParse   = 3
)

var (
	rankMinScore float64
	rankLimit    int
	rankV1       bool
)

var rootCmd = &cobra.Command{
	Use:   "smartmoney",
	Short: "Smart-money intelligence platform",
	Long: `smartmoney ingests public capital-flow disclosures (legislator trades,
ARK ETF holdings, 13F filings, insider filings, off-exchange volume, short
interest, superinvestor portfolios), scores per-source conviction and ranks
tickers by multi-source confluence.`,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <source>",
	Short: "Refresh a single source artifact",
	Long: `Refresh one source and rewrite its cache artifact.
Sources: ` + strings.Join(domain.AllSources, ", ") + `

Exit codes: 0 success, 2 fetch failure, 3 parse failure.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := mustWire(cmd.Context())
		defer c.Close()

		count, err := c.Pipeline.RefreshSource(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, collectors.ErrFetch) {
				os.Exit(exitFetch)
			}
			os.Exit(exitParse)
		}
		fmt.Printf("%s: %d records\n", args[0], count)
	},
}

var refreshAllCmd = &cobra.Command{
	Use:   "refresh-all",
	Short: "Refresh every source, rebuild rankings and derived stores",
	Long: `Run every collector, rebuild the V2 and V7 rankings, refresh the
columnar store and mirror artifacts to S3 when configured.

Exit codes: 0 success, 1 partial failure (some sources failed).`,
	Run: func(cmd *cobra.Command, args []string) {
		c := mustWire(cmd.Context())
		defer c.Close()

		if err := c.Pipeline.RefreshAll(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitErr)
		}
		fmt.Println("All sources refreshed")
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the current confluence ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustWire(cmd.Context())
		defer c.Close()

		in, err := pipeline.LoadInputs(c.CacheStore)
		if err != nil {
			return fmt.Errorf("failed to load artifacts: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		if rankV1 {
			scores := c.V1.Rank(in)
			fmt.Fprintln(w, "TICKER\tSCORE\tSOURCES")
			for i, s := range scores {
				if rankLimit > 0 && i >= rankLimit {
					break
				}
				fmt.Fprintf(w, "%s\t%.2f\t%s\n", s.Ticker, s.Score, strings.Join(s.Sources, ","))
			}
			return nil
		}

		v2Ranking := c.V2.Rank(in)
		ranked := c.V7.Rank(v2Ranking, in, rankMinScore)
		fmt.Fprintln(w, "TICKER\tSCORE\tDIR\tSOURCES\tDATE")
		for i, r := range ranked {
			if rankLimit > 0 && i >= rankLimit {
				break
			}
			fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\n",
				r.Ticker, r.Score, r.Direction, strings.Join(r.Sources, ","), r.SignalDate)
		}
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "db-status",
	Short: "Show the columnar store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustWire(cmd.Context())
		defer c.Close()

		status := c.ColumnarStore.Status()
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var dbRefreshCmd = &cobra.Command{
	Use:   "db-refresh",
	Short: "Rebuild every columnar table from the cache artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustWire(cmd.Context())
		defer c.Close()

		counts, err := c.ColumnarStore.RefreshAll()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "TABLE\tROWS")
		for table, n := range counts {
			fmt.Fprintf(w, "%s\t%d\n", table, n)
		}
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scheduler daemon",
	Long: `Run the collector jobs on their cron schedules plus the nightly full
pipeline pass, with the columnar mtime watcher in the background. Stops
cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := mustWire(cmd.Context())
		defer c.Close()

		c.Watcher.Start()
		c.Scheduler.Start()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		c.Scheduler.Stop()
		return nil
	},
}

func init() {
	rankCmd.Flags().Float64Var(&rankMinScore, "min-score", 0, "Drop tickers below this score")
	rankCmd.Flags().IntVar(&rankLimit, "limit", 50, "Maximum rows to print (0 = all)")
	rankCmd.Flags().BoolVar(&rankV1, "v1", false, "Use the legacy 0-10 scoring formula")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(refreshAllCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(dbStatusCmd)
	rootCmd.AddCommand(dbRefreshCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// mustWire loads config and builds the container, exiting on failure.
func mustWire(ctx context.Context) *di.Container {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitErr)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	c, err := di.Wire(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitErr)
	}
	return c
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitErr)
	}
}
