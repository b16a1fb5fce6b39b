package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/core/coach"
	"vigil0/app/core/compose"
	"vigil0/app/core/contextengine"
	"vigil0/app/core/dispatch"
	"vigil0/app/core/journal"
	"vigil0/app/core/notify"
	"vigil0/app/core/patterns"
	"vigil0/app/core/persona"
	"vigil0/app/core/probe"
	"vigil0/app/core/scheduler"
	"vigil0/app/pkg/logger"
)

const tickJobName = "context-tick"

func main() {
	if err := logger.Init("output/logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("Vigil0 starting...")

	cfgManager, err := config.NewManager(config.DefaultPath())
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	store, err := journal.Open("output/db")
	if err != nil {
		logger.Error("Failed to open journal: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Journal initialized successfully")

	selector := persona.NewSelector(cfg.Persona)

	var composer compose.Composer
	if modelComposer, err := compose.NewOpenAI(cfg.Composer); err != nil {
		logger.Warn("Model composer unavailable, using plain wording: %v", err)
		composer = compose.Static{}
	} else {
		composer = modelComposer
	}

	telegram, err := dispatch.NewTelegram(cfg.Dispatch)
	if err != nil {
		logger.Error("Failed to initialize dispatcher: %v", err)
		os.Exit(1)
	}
	notifier := notify.New(composer, telegram, selector, cfg.Dispatch.ChatIDs)

	patternSvc := patterns.NewService(store, cfg.Patterns, "output/patterns")

	engine := contextengine.New(contextengine.Options{
		Sampler:            probe.NewSampler(cfg.Engine),
		Classifier:         contextengine.NewClassifier(cfg.Context),
		Rules:              contextengine.DefaultRules(cfg.Triggers),
		Notifier:           notifier,
		MaxDispatchPerHour: cfg.Engine.MaxDispatchPerHour,
		Routine:            patternSvc.Preemptive,
	})

	coachGen := coach.NewGenerator(store, composer, selector, cfg.Coach)
	coachGen.SetDelivery(telegram, cfg.Dispatch.ChatIDs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobScheduler := scheduler.New()
	engine.SetLoop(jobScheduler, tickJobName)

	sampleInterval := time.Duration(cfg.Engine.SampleIntervalSec) * time.Second
	jobs := []scheduler.JobSpec{
		{
			Name:       tickJobName,
			Interval:   sampleInterval,
			Timeout:    sampleInterval,
			RunOnStart: true,
			Run:        engine.Tick,
		},
		{
			Name:       "pattern-analysis",
			Interval:   3 * time.Hour,
			Timeout:    5 * time.Minute,
			RunOnStart: true,
			Run:        patternSvc.Run,
		},
		{
			Name:     "coach-report",
			Interval: time.Duration(cfg.Coach.PeriodHours) * time.Hour,
			Timeout:  5 * time.Minute,
			Run:      coachGen.Run,
		},
	}
	for _, job := range jobs {
		if err := jobScheduler.Register(job); err != nil {
			logger.Error("Failed to register job %s: %v", job.Name, err)
			os.Exit(1)
		}
	}

	if err := jobScheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := jobScheduler.Stop(3 * time.Second); err != nil {
			logger.Error("Scheduler shutdown timeout: %v", err)
		}
	}()

	logger.Info("Vigil0 is watching.")
	fmt.Println("- Sampling every", sampleInterval)
	fmt.Println("- Journal:  output/db/vigil0.db")
	fmt.Println("- Patterns: output/patterns/routines.json")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal: %v. Vigil0 shutting down...", sig)
	cancel()
}
