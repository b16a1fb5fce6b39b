package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"vigil0/app/core/journal"
	"vigil0/app/core/patterns"
)

func main() {
	dataDir := flag.String("data-dir", "output/db", "journal data directory")
	days := flag.Int("days", 7, "lookback window in days")
	format := flag.String("format", "table", "output format: table, json")
	minOccurrences := flag.Int("min-occurrences", 3, "minimum distinct days before a slot counts as a routine")
	confidence := flag.Float64("confidence", 0.7, "routine confidence threshold")
	flag.Parse()

	store, err := journal.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vigil-stats failed: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	now := time.Now()
	events, err := store.Events(context.Background(), now.AddDate(0, 0, -*days), now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vigil-stats failed: %v\n", err)
		os.Exit(2)
	}
	summary := patterns.NewAnalyzer(*minOccurrences, *confidence).Analyze(events)

	switch strings.ToLower(*format) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "vigil-stats failed: %v\n", err)
			os.Exit(2)
		}
	case "", "table":
		writeTables(summary, *days)
	default:
		fmt.Fprintf(os.Stderr, "vigil-stats failed: unsupported format %q\n", *format)
		os.Exit(2)
	}
}

func writeTables(summary patterns.Summary, days int) {
	styled := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	fmt.Printf("Last %d days: %d interactions, avg duration %s\n",
		days, summary.Total, (time.Duration(summary.AvgDurationMS) * time.Millisecond).String())
	if summary.Total == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	if styled {
		tw.SetStyle(table.StyleRounded)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	tw.AppendHeader(table.Row{"Request Type", "Count", "Share"})
	for _, requestType := range sortedKeys(summary.TypeCounts) {
		count := summary.TypeCounts[requestType]
		tw.AppendRow(table.Row{
			requestType,
			count,
			fmt.Sprintf("%.0f%%", float64(count)/float64(summary.Total)*100),
		})
	}
	tw.Render()

	if len(summary.PeakHours) > 0 {
		hours := make([]string, len(summary.PeakHours))
		for i, h := range summary.PeakHours {
			hours[i] = fmt.Sprintf("%02d:00", h)
		}
		fmt.Println("Peak hours:", strings.Join(hours, ", "))
	}

	if len(summary.Routines) == 0 {
		fmt.Println("No routines detected yet.")
		return
	}
	rw := table.NewWriter()
	rw.SetOutputMirror(os.Stdout)
	if styled {
		rw.SetStyle(table.StyleRounded)
	}
	rw.AppendHeader(table.Row{"Weekday", "Hour", "Type", "Days", "Confidence"})
	for _, r := range summary.Routines {
		rw.AppendRow(table.Row{
			r.Weekday.String(),
			fmt.Sprintf("%02d:00", r.Hour),
			r.RequestType,
			r.Occurrences,
			fmt.Sprintf("%.2f", r.Confidence),
		})
	}
	rw.Render()
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
