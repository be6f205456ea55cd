package cmd

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/logging"
	"github.com/spf13/cobra"
)

type logsOptions struct {
	resource string
	watcher  string
	level    string
	since    string
	grep     string
	format   string
	tail     int
}

func newLogsCmd() *cobra.Command {
	opts := &logsOptions{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View coordinator logs",
		Long: `View and filter the JSON log written by rendezvous participants.

Logs are read from logging.dir, including rotated backups. Logging to a
file must be enabled by setting logging.dir.

Examples:
  # Show the last 50 entries
  rendezvous logs

  # Everything one resource did, as CSV
  rendezvous logs --resource db -n 0 --format csv

  # Warnings from the last hour
  rendezvous logs --level warn --since 1h

  # Search for specific patterns
  rendezvous logs --grep "takeover|failed"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resource, "resource", "r", "", "only entries for this resource")
	cmd.Flags().StringVarP(&opts.watcher, "watcher", "w", "", "only entries for this watcher id (prefix match)")
	cmd.Flags().StringVar(&opts.level, "level", "", "filter by minimum level (debug/info/warn/error)")
	cmd.Flags().StringVar(&opts.since, "since", "", "show logs since duration ago (e.g., 1h, 30m)")
	cmd.Flags().StringVar(&opts.grep, "grep", "", "filter messages matching pattern (regex)")
	cmd.Flags().StringVar(&opts.format, "format", "pretty", "output format: pretty, json, text, csv")
	cmd.Flags().IntVarP(&opts.tail, "tail", "n", 50, "number of entries to show (0 for all)")
	return cmd
}

func runLogs(cmd *cobra.Command, opts *logsOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logDir := cfg.Logging.ResolveDir()
	out := cmd.OutOrStdout()
	if logDir == "" {
		fmt.Fprintln(out, "Logging goes to stderr; set logging.dir to keep a log file.")
		return nil
	}

	filter := logging.LogFilter{
		Level:     opts.level,
		Resource:  opts.resource,
		WatcherID: opts.watcher,
	}
	if opts.since != "" {
		d, err := time.ParseDuration(opts.since)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}

	var grep *regexp.Regexp
	if opts.grep != "" {
		grep, err = regexp.Compile(opts.grep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}

	entries, err := logging.AggregateLogs(logDir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)
	if grep != nil {
		kept := entries[:0]
		for _, e := range entries {
			if grep.MatchString(e.Message) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if opts.tail > 0 && len(entries) > opts.tail {
		entries = entries[len(entries)-opts.tail:]
	}

	if strings.ToLower(opts.format) == "pretty" {
		return printPretty(out, entries)
	}
	return logging.ExportLogEntries(entries, out, opts.format)
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

func printPretty(w io.Writer, entries []logging.LogEntry) error {
	for i := range entries {
		if _, err := fmt.Fprintln(w, formatLogEntry(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry *logging.LogEntry) string {
	var sb strings.Builder

	sb.WriteString(colorGray)
	sb.WriteString("[" + entry.Timestamp.Format("15:04:05.000") + "]")
	sb.WriteString(colorReset)

	sb.WriteString(" ")
	sb.WriteString(levelColor(entry.Level))
	sb.WriteString("[" + strings.ToUpper(entry.Level) + "]")
	sb.WriteString(colorReset)

	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	context := []struct{ key, value string }{
		{"resource", entry.Resource},
		{"watcher", shortID(entry.WatcherID)},
		{"role", entry.Role},
	}
	for _, kv := range context {
		if kv.value == "" {
			continue
		}
		sb.WriteString(" " + colorCyan + kv.key + "=" + kv.value + colorReset)
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" " + colorCyan + k + "=" + colorReset)
		sb.WriteString(fmt.Sprintf("%v", entry.Attrs[k]))
	}

	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
