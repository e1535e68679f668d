// Package benchmark runs configured pipeline implementations as
// subprocesses, parses the metrics they report on stdout and
// aggregates the outcome into a persisted results document.
package benchmark

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
	"salespipe/pkg/contracts/domain"
)

// Markers framing the memory reading in pipeline output. Every
// implementation prints a line of the form
// "Peak Memory: <value> MB (<value> GB)".
const (
	memoryPrefix = "Peak Memory:"
	memorySuffix = "MB"
)

// dataDirPlaceholder in an implementation command is replaced with the
// benchmark's data directory.
const dataDirPlaceholder = "{data_dir}"

// Runner executes each configured implementation the configured number
// of times and collects per-run results.
type Runner struct {
	cfg     config.BenchmarkConfig
	dataDir string
	logger  *slog.Logger
	limiter *rate.Limiter

	// Out receives progress lines, echoed subprocess output and the
	// results summary. Defaults to os.Stdout.
	Out io.Writer

	// execCommand builds the subprocess for one run. Tests replace it
	// to avoid spawning real pipelines.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner creates a benchmark runner over dataDir.
func NewRunner(cfg config.BenchmarkConfig, dataDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:         cfg,
		dataDir:     dataDir,
		logger:      infrastructure.WithComponent(logger, "benchmark"),
		limiter:     rate.NewLimiter(rate.Every(cfg.Pause), 1),
		Out:         os.Stdout,
		execCommand: exec.CommandContext,
	}
}

// Run executes the full benchmark session: all runs of all
// implementations, the printed summary, and the saved results
// document. Runs are paced by the configured pause.
func (r *Runner) Run(ctx context.Context) (*domain.ResultsDocument, error) {
	benchmarkID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, benchmarkID)
	doc := domain.NewResultsDocument(benchmarkID, r.dataDir, r.cfg.Runs)

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(r.Out, "\n%s\n", rule)
	fmt.Fprintf(r.Out, "Starting Benchmark Suite\n")
	fmt.Fprintf(r.Out, "Data directory: %s\n", r.dataDir)
	fmt.Fprintf(r.Out, "Number of runs: %d\n", r.cfg.Runs)
	fmt.Fprintf(r.Out, "%s\n", rule)

	r.logger.InfoContext(ctx, "benchmark session started",
		slog.String("benchmark_id", benchmarkID),
		slog.String("data_dir", r.dataDir),
		slog.Int("runs", r.cfg.Runs),
		slog.Int("implementations", len(r.cfg.Implementations)))

	for run := 1; run <= r.cfg.Runs; run++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return doc, fmt.Errorf("benchmark canceled: %w", err)
		}

		fmt.Fprintf(r.Out, "\n%s\n", rule)
		fmt.Fprintf(r.Out, "Run %d/%d\n", run, r.cfg.Runs)
		fmt.Fprintf(r.Out, "%s\n", rule)

		for _, impl := range r.cfg.Implementations {
			result := r.runOnce(ctx, impl)
			doc.Append(impl.Name, result)

			if result.Success {
				fmt.Fprintf(r.Out, "✓ %s: %.2fs, %.2fMB\n",
					impl.Name, result.Duration, result.MemoryMB)
			} else {
				fmt.Fprintf(r.Out, "✗ %s: run failed\n", impl.Name)
			}

			r.logger.InfoContext(ctx, "benchmark run finished",
				slog.String("benchmark_id", benchmarkID),
				slog.String("implementation", impl.Name),
				slog.Int("run", run),
				slog.Bool("success", result.Success),
				slog.Float64("duration_s", result.Duration),
				slog.Float64("memory_mb", result.MemoryMB))
		}
	}

	r.printResults(doc)

	if err := SaveResults(r.cfg.ResultsPath, doc); err != nil {
		return doc, err
	}
	fmt.Fprintf(r.Out, "Results saved to: %s\n", r.cfg.ResultsPath)
	return doc, nil
}

// runOnce starts one implementation subprocess, echoes its stdout
// while watching for the memory marker, and measures wall-clock
// duration around the whole process. Failures are recorded, never
// returned: one bad run must not end the session.
func (r *Runner) runOnce(ctx context.Context, impl config.ImplementationConfig) domain.RunResult {
	argv := expandCommand(impl.Command, r.dataDir)
	if len(argv) == 0 {
		r.logger.ErrorContext(ctx, "implementation has no command",
			slog.String("implementation", impl.Name))
		return domain.RunResult{}
	}

	fmt.Fprintf(r.Out, "\nRunning %s pipeline...\n", impl.Name)

	cmd := r.execCommand(ctx, argv[0], argv[1:]...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to open stdout pipe",
			slog.String("implementation", impl.Name),
			slog.String("error", err.Error()))
		return domain.RunResult{}
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		r.logger.ErrorContext(ctx, "failed to start implementation",
			slog.String("implementation", impl.Name),
			slog.String("error", err.Error()))
		return domain.RunResult{}
	}

	memoryMB, found := r.scanOutput(ctx, stdout)

	waitErr := cmd.Wait()
	duration := time.Since(started).Seconds()

	if waitErr != nil {
		fmt.Fprintf(r.Out, "%s pipeline failed: %s\n",
			impl.Name, strings.TrimSpace(stderr.String()))
		return domain.RunResult{Duration: duration}
	}
	if !found {
		fmt.Fprintf(r.Out, "%s pipeline printed no memory reading\n", impl.Name)
		return domain.RunResult{Duration: duration}
	}

	return domain.RunResult{Duration: duration, MemoryMB: memoryMB, Success: true}
}

// scanOutput echoes subprocess output line by line and captures the
// first memory reading it sees. A scan failure, such as a line past the
// buffer cap, stops the echo but keeps draining the pipe so the child
// never blocks on a full stdout; the reading found so far still counts.
func (r *Runner) scanOutput(ctx context.Context, stdout io.Reader) (float64, bool) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var memoryMB float64
	var found bool
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(r.Out, line)
		if !found {
			if value, ok := extractMetric(line, memoryPrefix, memorySuffix); ok {
				memoryMB = value
				found = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, stdout)
		r.logger.ErrorContext(ctx, "stdout scan aborted",
			slog.String("error", err.Error()))
	}
	return memoryMB, found
}

// printResults writes the per-implementation statistics blocks and the
// baseline comparison.
func (r *Runner) printResults(doc *domain.ResultsDocument) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(r.Out, "\n%s\n", rule)
	fmt.Fprintf(r.Out, "Benchmark Results Summary\n")
	fmt.Fprintf(r.Out, "%s\n\n", rule)

	for _, impl := range r.cfg.Implementations {
		successful := doc.Successful(impl.Name)
		if len(successful) == 0 {
			fmt.Fprintf(r.Out, "%s: no successful runs\n\n", impl.Name)
			continue
		}

		durationStats := Compute(durations(successful))
		memoryStats := Compute(memories(successful))

		fmt.Fprintf(r.Out, "%s:\n", impl.Name)
		fmt.Fprintf(r.Out, "  Duration:    %.2fs (±%.2fs)\n", durationStats.Mean, durationStats.StdDev)
		fmt.Fprintf(r.Out, "               %.2f minutes\n", durationStats.Mean/60)
		fmt.Fprintf(r.Out, "  Memory:      %.2fMB (±%.2fMB)\n", memoryStats.Mean, memoryStats.StdDev)
		fmt.Fprintf(r.Out, "               %.2fGB\n\n", memoryStats.Mean/1024)
	}

	r.printComparisons(doc)
	fmt.Fprintf(r.Out, "%s\n\n", rule)
}

// printComparisons reports every implementation against the first
// configured one.
func (r *Runner) printComparisons(doc *domain.ResultsDocument) {
	if len(r.cfg.Implementations) < 2 {
		return
	}
	baseline := r.cfg.Implementations[0]
	baseRuns := doc.Successful(baseline.Name)
	if len(baseRuns) == 0 {
		return
	}
	baseDuration := stat.Mean(durations(baseRuns), nil)
	baseMemory := stat.Mean(memories(baseRuns), nil)

	for _, impl := range r.cfg.Implementations[1:] {
		runs := doc.Successful(impl.Name)
		if len(runs) == 0 {
			continue
		}
		duration := stat.Mean(durations(runs), nil)
		memory := stat.Mean(memories(runs), nil)
		if duration == 0 || baseMemory == 0 {
			continue
		}

		fmt.Fprintf(r.Out, "Comparison (%s vs %s):\n", impl.Name, baseline.Name)
		fmt.Fprintf(r.Out, "  Speed improvement:   %.1f× faster\n", baseDuration/duration)
		fmt.Fprintf(r.Out, "  Memory reduction:    %.1f%% less\n", (baseMemory-memory)/baseMemory*100)
		fmt.Fprintln(r.Out)
	}
}

// extractMetric pulls the number between prefix and suffix out of a
// line, e.g. "Peak Memory: 845.32 MB (0.83 GB)" yields 845.32.
func extractMetric(line, prefix, suffix string) (float64, bool) {
	start := strings.Index(line, prefix)
	if start < 0 {
		return 0, false
	}
	rest := line[start+len(prefix):]
	end := strings.Index(rest, suffix)
	if end < 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rest[:end]), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// expandCommand substitutes the data directory placeholder in every
// argument of an implementation command.
func expandCommand(command []string, dataDir string) []string {
	argv := make([]string, len(command))
	for i, arg := range command {
		argv[i] = strings.ReplaceAll(arg, dataDirPlaceholder, dataDir)
	}
	return argv
}
