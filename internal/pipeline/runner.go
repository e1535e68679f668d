package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
	"salespipe/internal/metrics"
)

// bannerRuleWidth matches the summary rule width so the startup banner
// and execution summary line up in terminal output.
const bannerRuleWidth = 60

// Runner executes the five pipeline stages in their fixed order and
// prints the startup banner and execution summary around them.
type Runner struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
	tracer trace.Tracer
	stages []Stage

	// Out receives all progress output. Defaults to os.Stdout; tests
	// replace it with a buffer.
	Out io.Writer
}

// NewRunner wires the stage sequence from configuration. tracer may be
// nil, in which case no spans are recorded.
func NewRunner(cfg config.PipelineConfig, logger *slog.Logger, tracer trace.Tracer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")
	return &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
		stages: []Stage{
			NewLoader(cfg, logger),
			NewCleaner(cfg.DateFormat, logger),
			NewTransformer(logger),
			NewAggregator(logger),
			NewWriter(cfg.OutputPath, logger),
		},
		Out: os.Stdout,
	}
}

// Run executes one full pipeline pass and returns the final state.
// The execution summary is printed only on success; a failed run
// returns the stage error without a summary, mirroring the exit
// contract the benchmark harness expects.
func (r *Runner) Run(ctx context.Context) (*RunState, error) {
	ctx = infrastructure.WithRunID(ctx, infrastructure.GenerateRunID())

	collector := metrics.NewCollector("Go", r.logger)
	collector.Start()

	state := &RunState{
		Metrics:  collector,
		Progress: r.Out,
	}

	r.printBanner()
	r.logger.InfoContext(ctx, "pipeline started",
		slog.String("data_dir", r.cfg.DataDir),
		slog.String("output_path", r.cfg.OutputPath))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return state, WrapError(err, stage.ID(), "pipeline canceled")
		}
		if err := r.runStage(ctx, stage, state); err != nil {
			collector.Stop()
			r.logger.ErrorContext(ctx, "pipeline failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			return state, err
		}
	}

	collector.Stop()
	fmt.Fprint(r.Out, collector.Summary())

	r.logger.InfoContext(ctx, "pipeline completed",
		slog.Duration("duration", collector.Duration()),
		slog.Float64("peak_memory_mb", collector.PeakMemoryMB()),
		slog.Int("products", len(state.Aggregates)))
	return state, nil
}

// runStage executes one stage inside a trace span and logs its
// duration. Stage errors are returned typed; anything untyped is
// wrapped with the stage id.
func (r *Runner) runStage(ctx context.Context, stage Stage, state *RunState) error {
	stageCtx := ctx
	var span trace.Span
	if r.tracer != nil {
		stageCtx, span = r.tracer.Start(ctx, "pipeline."+stage.ID(),
			trace.WithAttributes(attribute.String("stage.name", stage.Name())))
		defer span.End()
	}

	r.logger.InfoContext(stageCtx, "stage started", slog.String("stage", stage.ID()))
	started := time.Now()

	if err := stage.Execute(stageCtx, state); err != nil {
		var pErr *PipelineError
		if errors.As(err, &pErr) {
			if pErr.Stage == "" {
				pErr.Stage = stage.ID()
			}
		} else {
			pErr = WrapError(err, stage.ID(), stage.Name()+" failed")
		}
		infrastructure.RecordError(stageCtx, pErr,
			trace.WithAttributes(attribute.String("stage.id", stage.ID())))
		return pErr
	}

	elapsed := time.Since(started)
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
	infrastructure.AddSpanEvent(stageCtx, "stage.completed",
		attribute.String("stage.id", stage.ID()),
		attribute.Int64("duration_ms", elapsed.Milliseconds()))
	r.logger.InfoContext(stageCtx, "stage completed",
		slog.String("stage", stage.ID()),
		slog.Duration("duration", elapsed))
	return nil
}

// printBanner writes the fixed startup block. Like the execution
// summary it is framed by 60-character rules and a trailing blank
// line.
func (r *Runner) printBanner() {
	rule := strings.Repeat("=", bannerRuleWidth)
	fmt.Fprintf(r.Out, "\n%s\n", rule)
	fmt.Fprintf(r.Out, "Starting Go Pipeline\n")
	fmt.Fprintf(r.Out, "Timestamp: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(r.Out, "%s\n\n", rule)
}
