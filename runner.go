package browsershot

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/root4loot/goutils/log"
	"github.com/root4loot/goutils/urlutil"

	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

const Version = "0.2.0"

type Runner struct {
	Options    *Options
	shooter    *shot.Browsershot
	visited    map[string]bool
	seenHashes map[string]struct{}
	images     [][]byte
	mutex      sync.Mutex
}

// Options contains options for the runner
type Options struct {
	Render              shot.RenderConfig // Viewport, quality, engine and binary
	Save                shot.SaveOptions  // Resize and imprint settings
	Concurrency         int               // Number of concurrent renders
	SaveScreenshotsPath string            // Folder screenshots are written to
	Format              string            // Output extension (png, jpg, jpeg)
	SaveUnique          bool              // Drop byte-identical screenshots
	AvoidDuplicates     bool              // Drop screenshots similar to an earlier one
	DuplicateThreshold  int               // Similarity score (1-100) treated as duplicate
	Silence             bool              // Silence output
	Verbose             bool              // Verbose logging
}

// Result describes the outcome for one target.
type Result struct {
	Target  string // Target as given
	URL     string // Normalized URL that was rendered
	File    string // Written screenshot, empty when skipped or failed
	Skipped bool   // Visited before or dropped as duplicate
	Error   error
}

func init() {
	log.Init("browsershot")
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{
		Render:              shot.NewOptions(),
		Concurrency:         10,
		SaveScreenshotsPath: "./screenshots",
		Format:              "png",
		SaveUnique:          false,
		AvoidDuplicates:     false,
		DuplicateThreshold:  96,
	}
}

// NewRunner returns a new runner using the default options.
func NewRunner() (*Runner, error) {
	return NewRunnerWithOptions(*DefaultOptions())
}

// NewRunnerWithOptions returns a new runner with the specified options
func NewRunnerWithOptions(options Options) (*Runner, error) {
	engine, err := shot.NewEngine(options.Render.Engine)
	if err != nil {
		return nil, err
	}
	return NewRunnerWithEngine(options, engine), nil
}

// NewRunnerWithEngine returns a runner rendering through engine.
func NewRunnerWithEngine(options Options, engine shot.Engine) *Runner {
	SetLogLevel(&options)
	log.Debug("Creating new runner with options...")

	if options.Concurrency < 1 {
		options.Concurrency = 1
	}

	return &Runner{
		Options:    &options,
		shooter:    shot.NewWithEngine(options.Render, engine),
		visited:    make(map[string]bool),
		seenHashes: make(map[string]struct{}),
	}
}

// Single captures a single target and returns the result.
func (r *Runner) Single(ctx context.Context, target string) Result {
	normalizedTarget, err := Normalize(target)
	if err != nil {
		log.Warnf("Could not normalize target %s: %v", target, err)
		return Result{Target: target, Error: err}
	}

	if !r.markVisited(normalizedTarget) {
		log.Debugf("Skipping %s as it has already been visited", normalizedTarget)
		return Result{Target: target, URL: normalizedTarget, Skipped: true}
	}

	result := r.worker(ctx, normalizedTarget)
	result.Target = target
	return result
}

// Multiple captures multiple targets and returns the results
func (r *Runner) Multiple(ctx context.Context, targets []string) (results []Result) {
	log.Debug("Running multiple...")

	var mu sync.Mutex
	sem := make(chan struct{}, r.Options.Concurrency)
	var wg sync.WaitGroup
	for _, target := range targets {
		sem <- struct{}{}
		wg.Add(1)
		go func(t string) {
			defer func() { <-sem }()
			defer wg.Done()
			res := r.Single(ctx, t)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	return results
}

// MultipleStream captures multiple targets and streams the results using channels
func (r *Runner) MultipleStream(ctx context.Context, resultsChan chan<- Result, targets ...string) {
	log.Debug("Running multiple stream...")
	defer close(resultsChan)

	sem := make(chan struct{}, r.Options.Concurrency)
	var wg sync.WaitGroup
	for _, target := range targets {
		sem <- struct{}{}
		wg.Add(1)
		go func(t string) {
			defer func() { <-sem }()
			defer wg.Done()
			resultsChan <- r.Single(ctx, t)
		}(target)
	}
	wg.Wait()
}

// Normalize adds https:// to targets without a scheme and a trailing slash
// to bare hosts.
func Normalize(target string) (string, error) {
	target = strings.TrimSpace(target)

	if !urlutil.HasScheme(target) {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if u.Host == "" {
		return "", &url.Error{Op: "parse", URL: target, Err: errMissingHost}
	}

	if u.Path == "" {
		return urlutil.EnsureTrailingSlash(u.String())
	}

	return u.String(), nil
}

// markVisited records str and reports whether it was new.
func (r *Runner) markVisited(str string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.visited[str] {
		return false
	}
	r.visited[str] = true
	return true
}

// SetLogLevel initiates the logger and sets the log level based on the options
func SetLogLevel(options *Options) {
	if options.Silence {
		log.SetLevel(log.FatalLevel)
	} else if options.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
