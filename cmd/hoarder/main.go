package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"event_hoarder/internal/cache"
	"event_hoarder/internal/config"
	"event_hoarder/internal/domain"
	"event_hoarder/internal/export"
	"event_hoarder/internal/publisher"
	"event_hoarder/internal/scheduler"
	"event_hoarder/internal/service"
	"event_hoarder/internal/session"
	"event_hoarder/internal/source/eventbrite"
	"event_hoarder/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	eventStore := postgres.NewEventStore(db)
	txManager := postgres.NewTransactionManager(db)
	resultCache := cache.New()

	source := eventbrite.New(eventbrite.Config{
		BaseURL:        cfg.Scrape.BaseURL,
		Region:         cfg.Scrape.Region,
		Timeout:        cfg.Scrape.Timeout,
		MaxAttempts:    cfg.Scrape.Retry.MaxAttempts,
		InitialBackoff: cfg.Scrape.Retry.InitialBackoff,
		MaxBackoff:     cfg.Scrape.Retry.MaxBackoff,
		DetailWorkers:  cfg.Scrape.DetailWorkers,
	}, logger)

	searchService := service.NewSearchService(
		source,
		eventStore,
		txManager,
		pub,
		resultCache,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Stale events are pruned once at start and then on a ticker.
	sched := scheduler.NewScheduler(searchService, cfg.Prune.Interval, logger)
	go func() {
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("scheduler error", "error", err)
		}
	}()

	menu := &menu{
		service: searchService,
		scanner: bufio.NewScanner(os.Stdin),
		logger:  logger,
	}
	menu.run(ctx)
}

type menu struct {
	service *service.SearchService
	scanner *bufio.Scanner
	logger  *slog.Logger
}

func (m *menu) run(ctx context.Context) {
	for {
		fmt.Println("-------------------------------------")
		fmt.Println("Welcome to Event Hoarder!")
		fmt.Println("1. Quick Search & Collect")
		fmt.Println("2. Search Top Events by Location")
		fmt.Println("3. Search & Collect by Category")
		fmt.Println("4. View Collected Events")
		fmt.Println("5. Sort Collected Events")
		fmt.Println("6. Export Collected Events to CSV")
		fmt.Println("7. Clear Database")
		fmt.Println("8. Exit")

		switch m.input("Enter your choice: ") {
		case "1":
			if m.search(ctx, searchQuick) == session.ExitQuit {
				return
			}
		case "2":
			if m.search(ctx, searchTop) == session.ExitQuit {
				return
			}
		case "3":
			if m.search(ctx, searchCategory) == session.ExitQuit {
				return
			}
		case "4":
			m.viewCollected(ctx)
		case "5":
			m.sortCollected(ctx)
		case "6":
			m.exportCSV(ctx)
		case "7":
			if err := m.service.ClearStore(ctx); err != nil {
				fmt.Println("Could not clear the database:", err)
			} else {
				fmt.Println("Database cleared.")
			}
		case "8":
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}

		if ctx.Err() != nil {
			return
		}
	}
}

type searchMode int

const (
	searchQuick searchMode = iota
	searchTop
	searchCategory
)

func (m *menu) search(ctx context.Context, mode searchMode) session.ExitReason {
	var params domain.SearchParams
	switch mode {
	case searchTop:
		params.TopEvents = true
	case searchCategory:
		params.Category = m.input("Enter category (e.g. music, food-and-drink): ")
	default:
		params.Query = m.input("Enter event type or name: ")
	}
	params.Location = m.input("Enter location: ")

	if mode != searchTop && strings.EqualFold(m.input("Would you like to enter a date? (Y/N): "), "y") {
		fmt.Println("1. Today\n2. Tomorrow\n3. This weekend\n4. Pick a date range")
		switch m.input("Enter the number of choice: ") {
		case "1":
			params.Day = "today"
		case "2":
			params.Day = "tomorrow"
		case "3":
			params.Day = "this-weekend"
		default:
			params.StartDate = m.input("Enter the start date (YYYY-MM-DD): ")
			params.EndDate = m.input("Enter the end date (YYYY-MM-DD): ")
		}
	}

	fmt.Println("Fetching events, this may take a moment...")
	set, stats, err := m.service.Search(ctx, params)
	if err != nil {
		fmt.Println("Search failed:", err)
		return session.ExitNewSearch
	}
	fmt.Printf("Fetched %d events (%d new, %d updated).\n", stats.Fetched, stats.New, stats.Updated)
	m.printTopTags(set)

	sess := session.New(m.service, set, params, m.renderWindow, m.promptSignal, m.logger)
	reason, err := sess.Run(ctx)
	switch reason {
	case session.ExitError:
		fmt.Println("Could not fetch more events:", err)
	case session.ExitExhausted:
		fmt.Println("No more events to fetch.")
	}
	return reason
}

func (m *menu) sortCollected(ctx context.Context) {
	records, err := m.service.StoredAll(ctx)
	if err != nil {
		fmt.Println("Could not read the store:", err)
		return
	}
	if len(records) < 2 {
		fmt.Println("Not enough events to sort.")
		return
	}

	fmt.Println("What would you like to sort?")
	fmt.Println("1. Free events")
	fmt.Println("2. Cheapest events")
	fmt.Println("3. Most expensive events")
	fmt.Println("4. Events happening soon")

	var sorted []domain.EventRecord
	switch m.input("Enter your choice: ") {
	case "1":
		sorted = domain.FilterFree(records)
	case "2":
		sorted = domain.SortCheapestFirst(records)
	case "3":
		sorted = domain.SortMostExpensiveFirst(records)
	case "4":
		sorted = domain.SortSoonestFirst(records, time.Now())
	default:
		fmt.Println("Invalid choice.")
		return
	}
	if len(sorted) == 0 {
		fmt.Println("No events match that view.")
		return
	}
	m.renderWindow(sorted, 1)
}

func (m *menu) viewCollected(ctx context.Context) {
	keys, err := m.service.StoredSearchKeys(ctx)
	if err != nil {
		fmt.Println("Could not read the store:", err)
		return
	}
	if len(keys) == 0 {
		fmt.Println("No events collected yet.")
		return
	}

	fmt.Println("Collected searches:")
	for i, key := range keys {
		fmt.Printf("%d. %s\n", i+1, key)
	}
	choice := m.input("Enter a search key to view (or press Enter for all): ")

	var records []domain.EventRecord
	if choice == "" {
		records, err = m.service.StoredAll(ctx)
	} else {
		records, err = m.service.StoredBySearchKey(ctx, choice)
	}
	if err != nil {
		fmt.Println("Could not read the store:", err)
		return
	}
	m.renderWindow(records, 1)
}

func (m *menu) exportCSV(ctx context.Context) {
	records, err := m.service.StoredAll(ctx)
	if err != nil {
		fmt.Println("Could not read the store:", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("Nothing to export.")
		return
	}

	path := m.input("Enter output file name (default events.csv): ")
	if path == "" {
		path = "events.csv"
	}
	written, err := export.WriteCSV(records, path)
	if err != nil {
		fmt.Println("Export failed:", err)
		return
	}
	fmt.Printf("Exported %d events to %s\n", len(records), written)
}

func (m *menu) renderWindow(window []domain.EventRecord, _ int) {
	for _, rec := range window {
		summary := rec.Summary
		if len(summary) > 120 {
			summary = summary[:120] + "..."
		}
		link := ""
		if rec.OrganiserLink != nil {
			link = *rec.OrganiserLink
		}
		fmt.Println("-------------------------------------")
		fmt.Printf("%s,\n%s\n%s\nPrice: %s\nSummary: %s\nEvent URL: %s\nOrganiser: %s\nOrganiser's Link: %s\n",
			rec.Name, rec.Location, rec.RawSchedule, rec.PriceText, summary, rec.URL, rec.OrganiserName, link)
	}
	fmt.Println("-------------------------------------")
}

func (m *menu) printTopTags(set *cache.ResultSet) {
	top := set.Tags.TopK(10)
	if len(top) == 0 {
		return
	}
	fmt.Println("Most common tags:")
	for _, tc := range top {
		fmt.Printf("  %s (%d)\n", tc.Tag, tc.Count)
	}
}

func (m *menu) promptSignal() session.Signal {
	switch strings.ToLower(m.input(`Press "Y" to see more events, "S" for a new search, or any other key to exit: `)) {
	case "y":
		return session.SignalContinue
	case "s":
		return session.SignalNewSearch
	default:
		return session.SignalQuit
	}
}

func (m *menu) input(prompt string) string {
	fmt.Print(prompt)
	if !m.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(m.scanner.Text())
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
