// Package main prints a read-only overview of the analytics session store.
//
// Usage:
//
//	ANALYTICS_PATH=~/stagepass/analytics go run ./cmd/dbinspect -days 7
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/stagepass/stagepass-server/internal/analytics"
	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/logger"
)

var (
	days = flag.Int("days", 30, "Window to summarize, in days")
	top  = flag.Int("top", 10, "Landing pages to list")
)

func main() {
	flag.Parse()

	path := os.Getenv("ANALYTICS_PATH")
	if path == "" {
		path = os.ExpandEnv("$HOME/stagepass/analytics")
	}

	st, err := analytics.Open(analytics.Options{Path: path, ReadOnly: true}, logger.Discard().Logger)
	if err != nil {
		log.Fatalf("Failed to open analytics store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	from := time.Now().UTC().AddDate(0, 0, -*days)

	sessions, err := st.List(ctx, from, time.Time{})
	if err != nil {
		log.Fatalf("Failed to read sessions: %v", err)
	}

	fmt.Println("=== Analytics Inspection ===")
	fmt.Printf("Path:   %s\n", path)
	fmt.Printf("Window: last %d days (since %s)\n\n", *days, from.Format(time.DateOnly))

	sum := analytics.Summarize(sessions, *top)
	fmt.Printf("Sessions:        %d\n", sum.TotalSessions)
	fmt.Printf("Unique visitors: %d\n", sum.UniqueVisitors)
	fmt.Printf("Conversions:     %d (%.1f%%)\n", sum.Conversions, sum.ConversionRate*100)
	fmt.Printf("Avg duration:    %.0fs\n", sum.AvgDurationSeconds)
	fmt.Printf("Avg page views:  %.1f\n", sum.AvgPageViews)

	fmt.Println("\n--- By device ---")
	devices := make([]domain.Device, 0, len(sum.ByDevice))
	for d := range sum.ByDevice {
		devices = append(devices, d)
	}
	slices.Sort(devices)
	for _, d := range devices {
		fmt.Printf("  %-8s %d\n", d, sum.ByDevice[d])
	}

	fmt.Println("\n--- Top landing pages ---")
	for _, p := range sum.TopLandingPages {
		fmt.Printf("  %5d  %s\n", p.Sessions, p.Page)
	}

	fmt.Println("\n--- Per day ---")
	for _, d := range sum.PerDay {
		fmt.Printf("  %s  %d\n", d.Day, d.Sessions)
	}
}
