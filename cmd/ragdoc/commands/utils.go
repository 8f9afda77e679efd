// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Config and logger setup, app assembly, output formatting, and progress display
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses runs of whitespace so text fits a table cell
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// loadConfig reads .env, the optional YAML file, and the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to the command's stderr at the level the flags ask for
func newLogger(cmd *cobra.Command, cfg *config.Config) logger.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logger.New(logger.Config{
		Level:  level,
		Output: cmd.ErrOrStderr(),
		JSON:   cfg.LogJSON,
	})
}

// openApp assembles the pipeline and stores the logger on the command context
func openApp(cmd *cobra.Command, cfg *config.Config, opts ...app.Option) (*app.App, error) {
	log := newLogger(cmd, cfg)
	cmd.SetContext(logger.ContextWithLogger(commandContext(cmd), log))
	if !quiet {
		opts = append(opts, app.WithObserver(newProgressPrinter(cmd.ErrOrStderr())))
	}
	return app.New(cmd.Context(), cfg, log, opts...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// useJSON reports whether results should be printed as JSON. The auto
// format prints tables to terminals and JSON everywhere else.
func useJSON(w io.Writer) bool {
	switch outputFormat {
	case formatJSON:
		return true
	case formatTable:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// progressPrinter writes one line per quarter of progress in each phase
type progressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	last map[models.Phase]int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: make(map[models.Phase]int)}
}

var _ core.ProgressObserver = (*progressPrinter)(nil)

// OnProgress prints when a phase crosses a 25% step
func (p *progressPrinter) OnProgress(fraction float64, phase models.Phase) {
	step := int(fraction * 4)
	if step > 4 {
		step = 4
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	prev, seen := p.last[phase]
	if seen && step <= prev {
		return
	}
	p.last[phase] = step
	if step == 0 {
		return
	}
	fmt.Fprintf(p.w, "  %-10s %3d%%\n", phase, step*25)
}
