// Package lint drives the linting pipeline over a set of .tex files:
// path resolution, processing order, file rewriting and the watch loop.
package lint

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/texlint/pkg/citeorder"
	"github.com/coolbeans/texlint/pkg/config"
	"github.com/coolbeans/texlint/pkg/report"
	"github.com/coolbeans/texlint/pkg/rules"
)

// debounceDelay coalesces bursts of file events into one re-run. The
// linter's own rewrites echo back as events; idempotence makes the echo
// run a no-op.
const debounceDelay = 300 * time.Millisecond

// Runner applies the standard pipeline to resolved .tex files.
type Runner struct {
	cfg      *config.Config
	log      *report.Logger
	session  *citeorder.Session
	pipeline *rules.Pipeline
}

// NewRunner builds a runner over the given configuration.
func NewRunner(cfg *config.Config, log *report.Logger) *Runner {
	session := citeorder.NewSession(cfg.DocumentOrder, log)
	return &Runner{
		cfg:      cfg,
		log:      log,
		session:  session,
		pipeline: rules.Standard(cfg, log, session),
	}
}

// Stages returns the pipeline stage names in execution order.
func (r *Runner) Stages() []string {
	return r.pipeline.Stages()
}

// Resolve expands input paths into a deduplicated, ordered list of .tex
// files. Directories are walked recursively. The bibliography fragment
// sorts last so that every citation is seen before it is reordered.
func (r *Runner) Resolve(paths []string) []string {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			r.log.Errorf("path does not exist: %s", path)
			continue
		}
		if !info.IsDir() {
			if filepath.Ext(path) != ".tex" {
				r.log.Warningf("skipped non-.tex file: %s", path)
				continue
			}
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".tex" {
				add(p)
			}
			return nil
		})
		if err != nil {
			r.log.Errorf("walking %s: %v", path, err)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		bi := rules.Stem(files[i]) == r.cfg.Bibliography
		bj := rules.Stem(files[j]) == r.cfg.Bibliography
		if bi != bj {
			return bj
		}
		return files[i] < files[j]
	})
	return files
}

// Run lints every file reachable from paths and reports whether errors
// were found during this run. Files are rewritten in place only when a
// rule changed them. The logger is shared across runs in watch mode, so
// only errors logged after entry count.
func (r *Runner) Run(paths []string) bool {
	r.session.Reset()
	before := r.log.Errors()

	files := r.Resolve(paths)
	if len(files) == 0 {
		r.log.Infof("no .tex files to process")
		return r.log.Errors() > before
	}

	hadError := false
	for _, file := range files {
		if r.lintFile(file) {
			hadError = true
		}
	}
	return hadError || r.log.Errors() > before
}

// lintFile runs the pipeline over one file.
func (r *Runner) lintFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Errorf("cannot read %s: %v", path, err)
		return true
	}

	text := string(data)
	out, hadError := r.pipeline.Apply(path, text)

	if out != text {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			r.log.Errorf("cannot write %s: %v", path, err)
			return true
		}
	}
	return hadError
}

// Watch lints once, then re-lints whenever a .tex file under paths is
// created or modified. It blocks until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range watchDirs(paths) {
		if err := watcher.Add(dir); err != nil {
			r.log.Warningf("cannot watch %s: %v", dir, err)
		}
	}

	r.Run(paths)
	r.log.Infof("watching for changes, press Ctrl-C to stop")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						r.log.Warningf("cannot watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".tex") {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				pending = time.After(debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warningf("watch error: %v", err)

		case <-pending:
			pending = nil
			r.Run(paths)
		}
	}
}

// watchDirs collects the directories to register with the watcher: every
// input directory with its subdirectories, and the parent of every input
// file.
func watchDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string

	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(path))
			continue
		}
		filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				add(p)
			}
			return nil
		})
	}
	return dirs
}
