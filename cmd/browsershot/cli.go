package main

import (
	"fmt"
	"os"
	"time"

	browsershot "github.com/root4loot/browsershot"
	"github.com/root4loot/browsershot/internal/config"
)

type CLI struct {
	TargetURL    string
	Infile       string
	Outfile      string
	ConfigPath   string
	BinaryPath   string
	Engine       string
	UserAgent    string
	Width        int
	Height       int
	FullPage     bool
	Quality      int
	Delay        float64
	Timeout      float64
	ResizeWidth  int
	ResizeHeight int
	Concurrency  int
	Outfolder    string
	Format       string
	SaveUnique   bool
	AvoidDupes   bool
	Threshold    int
	Imprint      bool
	Serve        bool
	Debug        bool
	Silence      bool
	Version      bool
	Help         bool

	set map[string]bool
}

func newCLI() *CLI {
	return &CLI{set: make(map[string]bool)}
}

// checkForExits checks for the presence of the -h|--help and --version flags
func (c *CLI) checkForExits() {
	if c.Help {
		c.banner()
		c.usage()
		os.Exit(0)
	}
	if c.Version {
		printVersion()
		os.Exit(0)
	}

	if c.Serve {
		return
	}

	if !c.hasStdin() && !c.hasInfile() && !c.hasTarget() {
		fmt.Println("")
		fmt.Printf("%s\n\n", "Missing target")
		c.usage()
		os.Exit(2)
	}

	if c.hasOutfile() && !c.hasTarget() {
		fmt.Println("")
		fmt.Printf("%s\n\n", "-f requires a single target given with -t")
		c.usage()
		os.Exit(2)
	}
}

// isSet reports whether any of the given flag names appeared on the command line.
func (c *CLI) isSet(names ...string) bool {
	for _, name := range names {
		if c.set[name] {
			return true
		}
	}
	return false
}

// loadConfig reads --config or CONFIG_PATH and lays the explicit flags on top.
func (c *CLI) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if c.ConfigPath != "" {
		cfg, err = config.LoadFrom(c.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	c.applyFlags(&cfg)
	return cfg, cfg.Validate()
}

func (c *CLI) applyFlags(cfg *config.Config) {
	if c.isSet("b", "binary") {
		cfg.Render.BinaryPath = c.BinaryPath
	}
	if c.isSet("e", "engine") {
		cfg.Render.Engine = c.Engine
	}
	if c.isSet("ua", "user-agent") {
		cfg.Render.UserAgent = c.UserAgent
	}
	if c.isSet("cw", "capture-width") {
		cfg.Render.Width = c.Width
	}
	if c.isSet("ch", "capture-height") {
		cfg.Render.Height = c.Height
	}
	if c.FullPage {
		cfg.Render.Height = 0
	}
	if c.isSet("q", "quality") {
		cfg.Render.Quality = c.Quality
	}
	if c.isSet("d", "delay") {
		cfg.Render.Delay = seconds(c.Delay)
	}
	if c.isSet("to", "timeout") {
		cfg.Render.Timeout = seconds(c.Timeout)
	}
	if c.isSet("rw", "resize-width") {
		cfg.Batch.ResizeWidth = c.ResizeWidth
	}
	if c.isSet("rh", "resize-height") {
		cfg.Batch.ResizeHeight = c.ResizeHeight
	}
	if c.isSet("c", "concurrency") {
		cfg.Batch.Concurrency = c.Concurrency
	}
	if c.isSet("o", "outfolder") {
		cfg.Batch.Outfolder = c.Outfolder
	}
	if c.isSet("fmt", "format") {
		cfg.Batch.Format = c.Format
	}
	if c.SaveUnique {
		cfg.Batch.SaveUnique = true
	}
	if c.AvoidDupes {
		cfg.Batch.AvoidDuplicates = true
	}
	if c.isSet("dt", "duplicate-threshold") {
		cfg.Batch.DuplicateThreshold = c.Threshold
	}
	if c.Imprint {
		cfg.Batch.Imprint = true
	}
}

// runnerOptions converts the merged configuration into runner options.
func (c *CLI) runnerOptions(cfg config.Config) (browsershot.Options, error) {
	render, err := cfg.RenderOptions()
	if err != nil {
		return browsershot.Options{}, err
	}

	return browsershot.Options{
		Render:              render,
		Save:                cfg.SaveOptions(),
		Concurrency:         cfg.Batch.Concurrency,
		SaveScreenshotsPath: cfg.Batch.Outfolder,
		Format:              cfg.Batch.Format,
		SaveUnique:          cfg.Batch.SaveUnique,
		AvoidDuplicates:     cfg.Batch.AvoidDuplicates,
		DuplicateThreshold:  cfg.Batch.DuplicateThreshold,
		Silence:             c.logOptions().Silence,
		Verbose:             c.logOptions().Verbose,
	}, nil
}

// logOptions carries --silence and --debug for SetLogLevel.
func (c *CLI) logOptions() *browsershot.Options {
	return &browsershot.Options{Silence: c.Silence, Verbose: c.Debug}
}

// hasStdin determines if the user has piped input
func (c *CLI) hasStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	mode := stat.Mode()

	isPipedFromChrDev := (mode & os.ModeCharDevice) == 0
	isPipedFromFIFO := (mode & os.ModeNamedPipe) != 0

	return isPipedFromChrDev || isPipedFromFIFO
}

// hasTarget determines if the user has provided a target
func (c *CLI) hasTarget() bool {
	return c.TargetURL != ""
}

// hasInfile determines if the user has provided an input file
func (c *CLI) hasInfile() bool {
	return c.Infile != ""
}

// hasOutfile determines if the user asked for a single output file
func (c *CLI) hasOutfile() bool {
	return c.Outfile != ""
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
