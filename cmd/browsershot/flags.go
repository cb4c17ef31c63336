package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	browsershot "github.com/root4loot/browsershot"
	"github.com/root4loot/browsershot/internal/config"
)

func (c *CLI) banner() {
	fmt.Println("\nbrowsershot", browsershot.Version, "by", author)
}

func (c *CLI) usage() {
	d := config.Default()
	w := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)

	fmt.Fprintf(w, "Usage:\t%s [options] (-t <target> | -l <targets.txt> | --serve)\n", os.Args[0])

	fmt.Fprintf(w, "\nINPUT:\n")
	fmt.Fprintf(w, "\t%s,  %s\t%s\n", "-t", "--target", "single target")
	fmt.Fprintf(w, "\t%s,  %s\t%s\n", "-l", "--list", "input file containing list of targets (one per line)")
	fmt.Fprintf(w, "\t%s    %s\t%s\n", "  ", "--config", "YAML config file (Default: $CONFIG_PATH)")

	fmt.Fprintf(w, "\nRENDERING:\n")
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: $%s)\n", "-b", "--binary", "path to the browser binary", config.BinaryEnv)
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: %s)\n", "-e", "--engine", "rendering engine (phantomjs, chrome, rod)", d.Render.Engine)
	fmt.Fprintf(w, "\t%s, %s\t%s\n", "-ua", "--user-agent", "set user agent")
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %d)\n", "-cw", "--capture-width", "screenshot pixel width", d.Render.Width)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %d)\n", "-ch", "--capture-height", "screenshot pixel height", d.Render.Height)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %v)\n", "-cf", "--capture-full", "capture full page", false)
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: %d)\n", "-q", "--quality", "output quality (1-100)", d.Render.Quality)
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: %v seconds)\n", "-d", "--delay", "wait time before capturing", d.Render.Delay.Seconds())
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %v seconds)\n", "-to", "--timeout", "timeout for screenshot capture", d.Render.Timeout.Seconds())
	fmt.Fprintf(w, "\t%s, %s\t%s\n", "-rw", "--resize-width", "resize to width after cropping")
	fmt.Fprintf(w, "\t%s, %s\t%s\n", "-rh", "--resize-height", "resize to height after cropping")

	fmt.Fprintf(w, "\nCONFIGURATIONS:\n")
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: %d)\n", "-c", "--concurrency", "number of concurrent renders", d.Batch.Concurrency)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %v)\n", "-su", "--save-unique", "save unique screenshots only", d.Batch.SaveUnique)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %v)\n", "-ad", "--avoid-duplicates", "skip screenshots similar to earlier ones", d.Batch.AvoidDuplicates)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %d)\n", "-dt", "--duplicate-threshold", "similarity score treated as duplicate (1-100)", d.Batch.DuplicateThreshold)
	fmt.Fprintf(w, "\t%s    %s\t%s\t(Default: %s)\n", "  ", "--serve", "serve screenshots over HTTP", d.Server.Listen)

	fmt.Fprintf(w, "\nOUTPUT:\n")
	fmt.Fprintf(w, "\t%s,  %s\t%s\t(Default: %s)\n", "-o", "--outfolder", "save images to given folder", d.Batch.Outfolder)
	fmt.Fprintf(w, "\t%s,  %s\t%s\n", "-f", "--file", "save the single target to this file")
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %s)\n", "-fmt", "--format", "image format (png, jpg, jpeg)", d.Batch.Format)
	fmt.Fprintf(w, "\t%s, %s\t%s\t(Default: %v)\n", "-it", "--imprint", "imprint URL in image", d.Batch.Imprint)
	fmt.Fprintf(w, "\t%s,  %s\t%s\n", "-s", "--silence", "silence output")
	fmt.Fprintf(w, "\t%s    %s\t%s\n", "  ", "--debug", "debug output")
	fmt.Fprintf(w, "\t%s    %s\t%s\n", "  ", "--version", "display version")

	w.Flush()
	fmt.Println("")
}

// parseFlags parses the command line options into c and records which flags
// were given explicitly.
func (c *CLI) parseFlags(args []string) error {
	d := config.Default()
	fs := flag.NewFlagSet("browsershot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// INPUT
	fs.StringVar(&c.TargetURL, "target", "", "")
	fs.StringVar(&c.TargetURL, "t", "", "")
	fs.StringVar(&c.Infile, "l", "", "")
	fs.StringVar(&c.Infile, "list", "", "")
	fs.StringVar(&c.ConfigPath, "config", "", "")

	// RENDERING
	fs.StringVar(&c.BinaryPath, "binary", "", "")
	fs.StringVar(&c.BinaryPath, "b", "", "")
	fs.StringVar(&c.Engine, "engine", d.Render.Engine, "")
	fs.StringVar(&c.Engine, "e", d.Render.Engine, "")
	fs.StringVar(&c.UserAgent, "user-agent", "", "")
	fs.StringVar(&c.UserAgent, "ua", "", "")
	fs.IntVar(&c.Width, "capture-width", d.Render.Width, "")
	fs.IntVar(&c.Width, "cw", d.Render.Width, "")
	fs.IntVar(&c.Height, "capture-height", d.Render.Height, "")
	fs.IntVar(&c.Height, "ch", d.Render.Height, "")
	fs.BoolVar(&c.FullPage, "capture-full", false, "")
	fs.BoolVar(&c.FullPage, "cf", false, "")
	fs.IntVar(&c.Quality, "quality", d.Render.Quality, "")
	fs.IntVar(&c.Quality, "q", d.Render.Quality, "")
	fs.Float64Var(&c.Delay, "delay", d.Render.Delay.Seconds(), "")
	fs.Float64Var(&c.Delay, "d", d.Render.Delay.Seconds(), "")
	fs.Float64Var(&c.Timeout, "timeout", d.Render.Timeout.Seconds(), "")
	fs.Float64Var(&c.Timeout, "to", d.Render.Timeout.Seconds(), "")
	fs.IntVar(&c.ResizeWidth, "resize-width", 0, "")
	fs.IntVar(&c.ResizeWidth, "rw", 0, "")
	fs.IntVar(&c.ResizeHeight, "resize-height", 0, "")
	fs.IntVar(&c.ResizeHeight, "rh", 0, "")

	// CONFIGURATIONS
	fs.IntVar(&c.Concurrency, "concurrency", d.Batch.Concurrency, "")
	fs.IntVar(&c.Concurrency, "c", d.Batch.Concurrency, "")
	fs.BoolVar(&c.SaveUnique, "save-unique", false, "")
	fs.BoolVar(&c.SaveUnique, "su", false, "")
	fs.BoolVar(&c.AvoidDupes, "avoid-duplicates", false, "")
	fs.BoolVar(&c.AvoidDupes, "ad", false, "")
	fs.IntVar(&c.Threshold, "duplicate-threshold", d.Batch.DuplicateThreshold, "")
	fs.IntVar(&c.Threshold, "dt", d.Batch.DuplicateThreshold, "")
	fs.BoolVar(&c.Serve, "serve", false, "")

	// OUTPUT
	fs.StringVar(&c.Outfolder, "outfolder", d.Batch.Outfolder, "")
	fs.StringVar(&c.Outfolder, "o", d.Batch.Outfolder, "")
	fs.StringVar(&c.Outfile, "file", "", "")
	fs.StringVar(&c.Outfile, "f", "", "")
	fs.StringVar(&c.Format, "format", d.Batch.Format, "")
	fs.StringVar(&c.Format, "fmt", d.Batch.Format, "")
	fs.BoolVar(&c.Imprint, "imprint", false, "")
	fs.BoolVar(&c.Imprint, "it", false, "")
	fs.BoolVar(&c.Silence, "s", false, "")
	fs.BoolVar(&c.Silence, "silence", false, "")
	fs.BoolVar(&c.Debug, "debug", false, "")
	fs.BoolVar(&c.Help, "help", false, "")
	fs.BoolVar(&c.Help, "h", false, "")
	fs.BoolVar(&c.Version, "version", false, "")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			c.Help = true
			return nil
		}
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		c.banner()
		c.usage()
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		c.set[f.Name] = true
	})
	return nil
}
