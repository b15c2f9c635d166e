// Package cli implements the rillcheck command: load a program manifest,
// run the per-crate checks, and report the result.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/rill-lang/rill/internal/check"
	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/manifest"
)

type options struct {
	crate   string
	watch   bool
	verbose bool
	noColor bool
}

// Run executes rillcheck with the given arguments and returns the process
// exit code: 0 when the program is coherent, 1 on a failed check or load
// error, 2 on usage errors.
func Run(args []string) int {
	fs := flag.NewFlagSet("rillcheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var opts options
	fs.StringVar(&opts.crate, "crate", "", "check only the named crate (default: all crates)")
	fs.BoolVar(&opts.watch, "watch", false, "re-run the checks whenever the manifest changes")
	fs.BoolVar(&opts.verbose, "verbose", false, "trace proof steps to stderr")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: rillcheck [flags] [manifest]\n\n")
		fmt.Fprintf(fs.Output(), "Checks trait coherence for the program described by the manifest\n")
		fmt.Fprintf(fs.Output(), "(default: %s in the current directory).\n\nFlags:\n", config.ManifestFileName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "rillcheck: too many arguments\n")
		fs.Usage()
		return 2
	}
	config.Verbose = opts.verbose

	path := fs.Arg(0)
	if path == "" {
		found, err := manifest.FindManifest(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "rillcheck: %v\n", err)
			return 2
		}
		path = found
	}

	out := newPrinter(os.Stdout, opts.noColor)
	if opts.watch {
		return watchLoop(path, opts, out)
	}
	return runOnce(path, opts, out)
}

func runOnce(path string, opts options, out *printer) int {
	if err := checkManifest(path, opts.crate); err != nil {
		out.failure(path, err)
		return 1
	}
	out.success(path)
	return 0
}

func checkManifest(path, crate string) error {
	program, err := manifest.Load(path)
	if err != nil {
		return err
	}
	c := check.New(program)
	if crate != "" {
		return c.CheckCrate(crate)
	}
	return c.CheckProgram()
}

// watchLoop re-runs the checks every time the manifest is written. Editors
// that replace the file on save show up as Create or Rename in the parent
// directory, so the whole directory is watched.
func watchLoop(path string, opts options, out *printer) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rillcheck: watch: %v\n", err)
		return 1
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		fmt.Fprintf(os.Stderr, "rillcheck: watch %s: %v\n", filepath.Dir(path), err)
		return 1
	}

	runOnce(path, opts, out)
	target, _ := filepath.Abs(path)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			name, _ := filepath.Abs(ev.Name)
			if name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			runOnce(path, opts, out)
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "rillcheck: watch: %v\n", err)
		}
	}
}
