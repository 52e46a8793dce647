package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coolbeans/texlint/pkg/bibcheck"
	"github.com/coolbeans/texlint/pkg/config"
	"github.com/coolbeans/texlint/pkg/lint"
	"github.com/coolbeans/texlint/pkg/report"
	"github.com/coolbeans/texlint/pkg/texdoc"
	"github.com/coolbeans/texlint/pkg/urlcheck"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "texlint",
		Short: "Linter and auto-fixer for Russian LaTeX reports",
		Long: `Texlint checks and rewrites LaTeX source files:

  - banned filler words and leftover #TODO notes
  - list item punctuation and casing
  - bibliography order matching first-citation order
  - bibliography entry formatting per GOST conventions
  - typographic symbols, dashes and non-breaking spaces
  - punctuation after displayed equations`,
		Version: version,
	}

	rootCmd.AddCommand(lintCmd())
	rootCmd.AddCommand(bibCmd())
	rootCmd.AddCommand(stagesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func lintCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Check and fix .tex files or directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = cfg.DefaultPaths
			}

			log := report.NewLogger(os.Stdout, os.Stderr)
			runner := lint.NewRunner(cfg, log)

			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runner.Watch(ctx, paths)
			}

			if runner.Run(paths) {
				return fmt.Errorf("check of .tex files finished with errors")
			}
			log.Infof("check of .tex files finished successfully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-lint on file changes")
	return cmd
}

func bibCmd() *cobra.Command {
	var (
		configPath string
		strict     bool
		checkLinks bool
	)

	cmd := &cobra.Command{
		Use:   "bib <file.tex>",
		Short: "Validate bibliography entry formatting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			start, end, ok := texdoc.BibEnv(string(data))
			if !ok {
				return fmt.Errorf("%s: no thebibliography environment found", args[0])
			}
			_, entries := texdoc.SplitBibEntries(string(data)[start:end])

			validator := bibcheck.NewValidator(cfg.ScientificDomains)
			texts := make([]string, len(entries))
			for i, entry := range entries {
				texts[i] = entry.Text
			}
			summary := validator.ValidateBibliography(texts)

			printSummary(args[0], entries, summary)

			if checkLinks {
				if err := runLinkCheck(cmd, summary); err != nil {
					return err
				}
			}

			failed := summary.Invalid > 0 && strict
			for _, result := range summary.Results {
				if len(result.Errors) > 0 {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("bibliography validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	cmd.Flags().BoolVar(&checkLinks, "check-links", false, "verify that entry URLs respond")
	return cmd
}

func printSummary(path string, entries []texdoc.BibEntry, summary *bibcheck.Summary) {
	warnColor := color.New(color.FgYellow)
	errColor := color.New(color.FgRed)
	okColor := color.New(color.FgGreen)

	for i, result := range summary.Results {
		key := result.Key
		if key == "" && i < len(entries) {
			key = entries[i].Key
		}
		if result.Valid() {
			continue
		}
		fmt.Printf("%s: entry '%s' (%s):\n", path, key, result.SourceType)
		for _, w := range result.Warnings {
			warnColor.Printf("  warning: %s\n", w)
		}
		for _, e := range result.Errors {
			errColor.Printf("  error: %s\n", e)
		}
	}

	fmt.Printf("\n%d entries: ", summary.Total)
	okColor.Printf("%d valid", summary.Valid)
	fmt.Print(", ")
	if summary.Invalid > 0 {
		warnColor.Printf("%d with findings\n", summary.Invalid)
	} else {
		fmt.Println("0 with findings")
	}
}

func runLinkCheck(cmd *cobra.Command, summary *bibcheck.Summary) error {
	var refs []urlcheck.Ref
	for _, result := range summary.Results {
		if result.URL != "" {
			refs = append(refs, urlcheck.Ref{Key: result.Key, URL: result.URL})
		}
	}
	if len(refs) == 0 {
		fmt.Println("no URLs to check")
		return nil
	}

	checker := urlcheck.NewChecker(urlcheck.DefaultOptions())
	rep := checker.Check(cmd.Context(), refs)
	fmt.Print(rep.String())

	if len(rep.Dead) > 0 {
		return fmt.Errorf("%d unreachable URL(s)", len(rep.Dead))
	}
	return nil
}

func stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List pipeline stages in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			log := report.NewLogger(os.Stdout, os.Stderr)
			runner := lint.NewRunner(cfg, log)
			for i, name := range runner.Stages() {
				fmt.Printf("%2d. %s\n", i+1, name)
			}
			return nil
		},
	}
}
