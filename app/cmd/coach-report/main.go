package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	config "vigil0/app/configs"
	"vigil0/app/core/coach"
	"vigil0/app/core/compose"
	"vigil0/app/core/journal"
	"vigil0/app/core/persona"
)

func main() {
	dataDir := flag.String("data-dir", "output/db", "journal data directory")
	configPath := flag.String("config", config.DefaultPath(), "path to the config file")
	hours := flag.Int("hours", 0, "report window in hours (0 uses the configured period)")
	plain := flag.Bool("plain", false, "skip the model composer and print raw facts")
	flag.Parse()

	cfgManager, err := config.NewManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coach-report failed: %v\n", err)
		os.Exit(2)
	}
	cfg := cfgManager.Get()
	if *hours > 0 {
		cfg.Coach.PeriodHours = *hours
	}

	store, err := journal.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coach-report failed: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	var composer compose.Composer
	if *plain {
		composer = compose.Static{}
	} else {
		modelComposer, err := compose.NewOpenAI(cfg.Composer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coach-report: %v, falling back to plain wording\n", err)
			composer = compose.Static{}
		} else {
			composer = modelComposer
		}
	}

	generator := coach.NewGenerator(store, composer, persona.NewSelector(cfg.Persona), cfg.Coach)
	report, err := generator.Build(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "coach-report failed: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Window: %s .. %s\n", report.From.Format("2006-01-02 15:04"), report.To.Format("2006-01-02 15:04"))
	fmt.Printf("Score:  %d/10\n\n", report.Score)
	for _, fact := range report.Facts {
		fmt.Println("-", fact)
	}
	fmt.Println()
	fmt.Println(report.Text)
}
