// Command talnabench is a small demonstration and load-generation harness
// for the embedded database: write synthetic samples, run a grouped
// aggregation query, or replay a bulk JSON load file, all against a single
// database file. Grounded on cuemby/warren's cmd/warren CLI structure
// (root cobra.Command plus subcommands, persistent log-level/log-json
// flags) scaled down to this engine's surface.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	talna "github.com/cuemby/talna"
	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/duration"
	"github.com/cuemby/talna/internal/tslog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "talnabench",
	Short:   "Load-generation and inspection harness for the talna embedded time-series engine",
	Version: "dev",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(loadCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	tslog.Init(tslog.Config{Level: tslog.Level(level), JSONOutput: jsonOut})
}

var writeCmd = &cobra.Command{
	Use:   "write <db-path> <metric>",
	Short: "Write a batch of synthetic random samples to a metric",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		hostCount, _ := cmd.Flags().GetInt("hosts")

		db, err := talna.NewBuilder().Open(args[0])
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		hosts := make([]string, hostCount)
		for i := range hosts {
			hosts[i] = uuid.NewString()[:8]
		}

		start := time.Now()
		for i := 0; i < count; i++ {
			tags := talna.TagSet{"host": hosts[i%len(hosts)]}
			if err := db.Write(args[1], float32(rand.Intn(1000))/10, tags); err != nil {
				return fmt.Errorf("writing sample %d: %w", i, err)
			}
		}
		elapsed := time.Since(start)

		fmt.Printf("wrote %s samples across %d hosts in %s (%s/sec)\n",
			humanize.Comma(int64(count)), hostCount, elapsed,
			humanize.Comma(int64(float64(count)/elapsed.Seconds())))
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <db-path> <metric>",
	Short: "Run a grouped aggregation query and print the resulting buckets as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		groupBy, _ := cmd.Flags().GetString("group-by")
		filter, _ := cmd.Flags().GetString("filter")
		kind, _ := cmd.Flags().GetString("kind")
		granularity, _ := cmd.Flags().GetDuration("granularity")
		sinceDays, _ := cmd.Flags().GetUint64("since-days")

		db, err := talna.NewBuilder().Open(args[0])
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		var builder *talna.AggregationBuilder
		switch kind {
		case "sum":
			builder = db.Sum(args[1], groupBy)
		case "avg":
			builder = db.Avg(args[1], groupBy)
		case "min":
			builder = db.Min(args[1], groupBy)
		case "max":
			builder = db.Max(args[1], groupBy)
		case "count":
			builder = db.Count(args[1], groupBy)
		default:
			return fmt.Errorf("unknown aggregation kind %q", kind)
		}

		builder = builder.Granularity(granularity).Filter(filter)
		if sinceDays > 0 {
			nowNanos := uint64(time.Now().UnixNano())
			builder = builder.Start(bigtime.FromNanos(nowNanos - duration.Days(sinceDays)))
		}

		grouped, err := builder.Build()
		if err != nil {
			return fmt.Errorf("building query: %w", err)
		}

		result, err := grouped.Collect()
		if err != nil {
			return fmt.Errorf("collecting result: %w", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

// loadRecord is one element of a bulk-load file's JSON array.
type loadRecord struct {
	Metric string            `json:"metric"`
	Value  float64           `json:"value"`
	Tags   map[string]string `json:"tags"`
}

var loadCmd = &cobra.Command{
	Use:   "load <db-path> <records.json>",
	Short: "Replay a JSON array of {metric,value,tags} records into a database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading records file: %w", err)
		}
		var records []loadRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parsing records file: %w", err)
		}

		db, err := talna.NewBuilder().Open(args[0])
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		for i, r := range records {
			if err := db.Write(r.Metric, float32(r.Value), r.Tags); err != nil {
				return fmt.Errorf("writing record %d: %w", i, err)
			}
		}
		fmt.Printf("loaded %s records from %s\n", humanize.Comma(int64(len(records))), args[1])
		return nil
	},
}

func init() {
	writeCmd.Flags().Int("count", 1000, "number of samples to write")
	writeCmd.Flags().Int("hosts", 4, "number of distinct host tag values to spread writes across")

	queryCmd.Flags().String("group-by", "host", "tag key to group aggregation results by")
	queryCmd.Flags().String("filter", "*", "tag filter expression")
	queryCmd.Flags().String("kind", "avg", "aggregation kind: sum, avg, min, max, count")
	queryCmd.Flags().Duration("granularity", time.Minute, "bucket width")
	queryCmd.Flags().Uint64("since-days", 0, "restrict the query to the last N days (0 disables the restriction)")
}
