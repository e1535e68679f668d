package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"salespipe/internal/config"
	"salespipe/internal/shared/testutil"
)

func runnerConfig(dataDir, outputPath string) config.PipelineConfig {
	return config.PipelineConfig{
		DataDir:       dataDir,
		OutputPath:    outputPath,
		FileExtension: ".csv",
		DateFormat:    "2006-01-02",
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	content := "product_id,quantity,price\nPROD_00001,2,10.0\nPROD_00001,3,20.0\n"
	writeTestCSV(t, dataDir, "sales_data_0001.csv", content)
	writeTestCSV(t, dataDir, "sales_data_0002.csv", content)
	outputPath := filepath.Join(t.TempDir(), "results", "go_output.csv")

	runner := NewRunner(runnerConfig(dataDir, outputPath), testLogger(), nil)
	var out bytes.Buffer
	runner.Out = &out

	state, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Aggregates, 1)
	agg := state.Aggregates[0]
	assert.Equal(t, "PROD_00001", agg.ProductID)
	assert.Equal(t, int64(10), agg.TotalQuantity)
	assert.InDelta(t, 160.0, agg.TotalRevenue, 0.0001)
	assert.InDelta(t, 15.0, agg.AvgPrice, 0.0001)

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t,
		"product_id,total_quantity,total_revenue,avg_price\nPROD_00001,10,160.00,15.00\n",
		string(written))

	text := out.String()
	assert.Contains(t, text, "Starting Go Pipeline")
	assert.Contains(t, text, "Timestamp: ")
	assert.Contains(t, text, "Total rows loaded: 4")
	assert.Contains(t, text, "Removed 0 invalid rows (0.00%)")
	assert.Contains(t, text, "Aggregated to 1 products")
	assert.Contains(t, text, "Pipeline Execution Summary (Go)")
	assert.Contains(t, text, "Duration: ")
	assert.Contains(t, text, "Peak Memory: ")
}

func TestRunnerWithDates(t *testing.T) {
	dataDir := t.TempDir()
	writeTestCSV(t, dataDir, "sales_data_0001.csv", "product_id,quantity,price,date\n"+
		"PROD_00001,2,10.0,2023-05-01\n"+
		"PROD_00002,1,4.0,not-a-date\n")
	outputPath := filepath.Join(t.TempDir(), "go_output.csv")

	runner := NewRunner(runnerConfig(dataDir, outputPath), testLogger(), nil)
	var out bytes.Buffer
	runner.Out = &out

	state, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, state.CleanStats.BadDates)
	require.Len(t, state.Aggregates, 1)
	assert.Equal(t, "PROD_00001", state.Aggregates[0].ProductID)
	assert.Contains(t, out.String(), "Removed 1 invalid rows (50.00%)")
}

func TestRunnerIdempotent(t *testing.T) {
	dataDir := t.TempDir()
	writeTestCSV(t, dataDir, "sales_data_0001.csv",
		"product_id,quantity,price\nPROD_00002,1,5.0\nPROD_00001,2,10.0\n")
	outputPath := filepath.Join(t.TempDir(), "go_output.csv")

	var outputs []string
	for i := 0; i < 2; i++ {
		runner := NewRunner(runnerConfig(dataDir, outputPath), testLogger(), nil)
		runner.Out = &bytes.Buffer{}

		_, err := runner.Run(context.Background())
		require.NoError(t, err)

		written, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		outputs = append(outputs, string(written))
	}

	assert.Equal(t, outputs[0], outputs[1], "reruns over unchanged input produce identical output")
}

func TestRunnerLogsStageProgression(t *testing.T) {
	dataDir := t.TempDir()
	writeTestCSV(t, dataDir, "sales_data_0001.csv", "product_id,quantity,price\nPROD_00001,1,1.0\n")

	logger, handler := testutil.NewTestLogger()
	runner := NewRunner(runnerConfig(dataDir, filepath.Join(t.TempDir(), "out.csv")), logger, nil)
	runner.Out = &bytes.Buffer{}

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	for _, stage := range []string{"load", "clean", "transform", "aggregate", "save"} {
		assert.True(t, handler.HasAttr("stage", stage), "no completion record for stage %q", stage)
	}
	assert.True(t, handler.Contains("pipeline completed"))
	assert.True(t, handler.HasAttr("component", "pipeline"))
	assert.Empty(t, handler.ByLevel(slog.LevelError))
}

func TestRunnerEmptyDataDir(t *testing.T) {
	runner := NewRunner(runnerConfig(t.TempDir(), filepath.Join(t.TempDir(), "out.csv")),
		testLogger(), nil)
	var out bytes.Buffer
	runner.Out = &out

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrTypeConfig, GetErrorType(err))
	assert.NotContains(t, out.String(), "Pipeline Execution Summary",
		"failed runs print no summary")
}

func TestRunnerCanceledContext(t *testing.T) {
	dataDir := t.TempDir()
	writeTestCSV(t, dataDir, "sales_data_0001.csv", "product_id,quantity,price\nPROD_00001,1,1.0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(runnerConfig(dataDir, filepath.Join(t.TempDir(), "out.csv")),
		testLogger(), nil)
	runner.Out = &bytes.Buffer{}

	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled")
}

func TestRunnerEmitsStageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	dataDir := t.TempDir()
	writeTestCSV(t, dataDir, "sales_data_0001.csv", "product_id,quantity,price\nPROD_00001,1,1.0\n")

	runner := NewRunner(runnerConfig(dataDir, filepath.Join(t.TempDir(), "out.csv")),
		testLogger(), provider.Tracer("test"))
	runner.Out = &bytes.Buffer{}

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 5)
	for i, id := range []string{"load", "clean", "transform", "aggregate", "save"} {
		span := spans[i]
		assert.Equal(t, "pipeline."+id, span.Name())
		require.Len(t, span.Events(), 1, "stage %q should mark its completion", id)
		event := span.Events()[0]
		assert.Equal(t, "stage.completed", event.Name)
		assert.Contains(t, event.Attributes, attribute.String("stage.id", id))
	}
}

func TestRunnerRecordsStageFailureOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	runner := NewRunner(runnerConfig(t.TempDir(), filepath.Join(t.TempDir(), "out.csv")),
		testLogger(), provider.Tracer("test"))
	runner.Out = &bytes.Buffer{}

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "pipeline.load", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	require.NotEmpty(t, span.Events())
	event := span.Events()[0]
	assert.Equal(t, "exception", event.Name)
	assert.Contains(t, event.Attributes, attribute.String("stage.id", "load"))
}
