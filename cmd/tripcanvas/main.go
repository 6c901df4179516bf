package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tripcanvas/tripcanvas/pkg/amadeus"
	"github.com/tripcanvas/tripcanvas/pkg/bridge"
	"github.com/tripcanvas/tripcanvas/pkg/config"
	"github.com/tripcanvas/tripcanvas/pkg/gateway"
	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/planner"
	"github.com/tripcanvas/tripcanvas/pkg/render"
)

func main() {
	configPath := flag.String("config", "tripcanvas.json", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFileLogging(cfg.LogFilePath(), cfg.Logging.MaxSizeMB); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer logger.DisableFileLogging()
	}

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		err = runServe(ctx, cfg)
	case "widget":
		err = runWidget(ctx, cfg, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve or widget)\n", command)
		os.Exit(2)
	}
	if err != nil {
		logger.ErrorCF("main", "Exiting with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

// runServe starts the gateway: REST, MCP, widget assets and the websocket
// hub, backed by Amadeus when credentials are configured.
func runServe(ctx context.Context, cfg *config.Config) error {
	var provider planner.Provider
	if cfg.Amadeus.Enabled {
		client, err := amadeus.NewClient(amadeus.Config{
			ClientID:      cfg.Amadeus.ClientID,
			ClientSecret:  cfg.Amadeus.ClientSecret,
			BaseURL:       cfg.Amadeus.BaseURL,
			Timeout:       time.Duration(cfg.Amadeus.TimeoutSecs) * time.Second,
			MaxFlights:    cfg.Planner.MaxFlights,
			MaxHotels:     cfg.Planner.MaxHotels,
			MaxActivities: cfg.Planner.MaxActivities,
		})
		if err != nil {
			return fmt.Errorf("amadeus client: %w", err)
		}
		provider = client
		logger.InfoC("main", "Amadeus provider enabled")
	} else {
		logger.InfoC("main", "Running offline, curated fallbacks only")
	}

	srv := gateway.NewServer(cfg, planner.NewService(provider))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runWidget connects to a running gateway as a widget: it renders pushed
// trip data and keeps running until interrupted.
func runWidget(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("widget", flag.ExitOnError)
	pageQuery := flags.String("page", "", "raw page query string (data=... development payload)")
	outPath := flags.String("out", "", "write rendered HTML to this file instead of stdout")
	book := flags.Bool("book", false, "send a booking follow-up once trip data renders")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var mount io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("opening output file: %w", err)
		}
		defer f.Close()
		mount = f
	}

	wsURL := fmt.Sprintf("ws://%s/ws", cfg.ListenAddr())
	conn, err := host.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("connecting to gateway: %w", err)
	}
	defer conn.Close()

	slot := host.NewSlot()
	renderer := render.NewHTML(func() io.Writer { return mount })

	br, err := bridge.New(bridge.Options{
		Snapshot:        slot,
		PageQuery:       *pageQuery,
		Events:          conn.Events(),
		Renderer:        renderer,
		FollowUp:        conn,
		PollInterval:    time.Duration(cfg.Bridge.PollIntervalMS) * time.Millisecond,
		PollMaxAttempts: cfg.Bridge.PollMaxAttempts,
	})
	if err != nil {
		return err
	}
	defer br.Dispose()

	if err := br.Start(ctx); err != nil {
		return err
	}
	logger.InfoCF("main", "Widget connected to gateway", map[string]interface{}{
		"url": wsURL,
	})

	if *book {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(500 * time.Millisecond):
				}
				if br.State().Rendered {
					if err := br.BookTrip(ctx); err != nil {
						logger.WarnCF("main", "Booking follow-up failed", map[string]interface{}{
							"error": err.Error(),
						})
					}
					return
				}
			}
		}()
	}

	<-ctx.Done()
	return nil
}
