package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/root4loot/goutils/fileutil"
	"github.com/root4loot/goutils/log"

	browsershot "github.com/root4loot/browsershot"
	"github.com/root4loot/browsershot/internal/config"
	"github.com/root4loot/browsershot/internal/server"
	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

const author = "@danielantonsen"

func init() {
	log.Init("browsershot")
}

func main() {
	cli := newCLI()
	if err := cli.parseFlags(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	cli.checkForExits()

	cfg, err := cli.loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cli.Serve {
		serve(cfg, cli.logOptions())
		return
	}

	options, err := cli.runnerOptions(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	runner, err := browsershot.NewRunnerWithOptions(options)
	if err != nil {
		log.Fatalf("Could not create runner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cli.hasOutfile() {
		res := runner.SaveAs(ctx, cli.TargetURL, cli.Outfile)
		if res.Error != nil {
			log.Fatalf("Could not screenshot %s: %v", cli.TargetURL, res.Error)
		}
		return
	}

	var targets []string
	if cli.hasStdin() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if target := strings.TrimSpace(scanner.Text()); target != "" {
				targets = append(targets, target)
			}
		}
	} else if cli.hasInfile() {
		targets, err = readFileLines(cli.Infile)
		if err != nil {
			log.Fatalf("Error reading file: %v", err)
		}
	} else if cli.hasTarget() {
		targets = append(targets, cli.TargetURL)
	}

	failed := processResults(ctx, runner, targets...)
	if failed > 0 {
		os.Exit(1)
	}
}

// processResults streams results as they come in and returns the number of
// targets that failed.
func processResults(ctx context.Context, runner *browsershot.Runner, targets ...string) (failed int) {
	results := make(chan browsershot.Result)

	go runner.MultipleStream(ctx, results, targets...)

	for result := range results {
		if result.Error != nil {
			log.Errorf("Could not screenshot %s: %v", result.Target, result.Error)
			failed++
		}
	}
	return failed
}

// serve runs the HTTP service until SIGINT or SIGTERM.
func serve(cfg config.Config, logOptions *browsershot.Options) {
	browsershot.SetLogLevel(logOptions)

	render, err := cfg.RenderOptions()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	engine, err := shot.NewEngine(render.Engine)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var rdb *redis.Client
	if cfg.Server.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Server.RedisAddr,
			DB:   cfg.Server.RedisDB,
		})
		defer rdb.Close()
	}

	app, err := server.SetupApp(cfg, engine, rdb)
	if err != nil {
		log.Fatalf("Could not set up server: %v", err)
	}

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg.Server.Listen, idleConnsClosed)
	<-idleConnsClosed
}

// startServer starts the fiber app and listens for shutdown signals
func startServer(app *fiber.App, addr string, idleConnsClosed chan struct{}) {
	go func() {
		log.Infof("Listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Errorf("Server error: %v", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	log.Warnf("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	close(idleConnsClosed)
	log.Infof("Server stopped cleanly")
}

// readFileLines reads the targets in path, skipping blank lines
func readFileLines(path string) ([]string, error) {
	fileTargets, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, target := range fileTargets {
		if target = strings.TrimSpace(target); target != "" {
			lines = append(lines, target)
		}
	}
	return lines, nil
}

func printVersion() {
	fmt.Println("browsershot", browsershot.Version)
}
