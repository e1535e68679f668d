// Package generator produces synthetic sales CSV datasets for pipeline
// benchmarking. Generated files contain a fixed 5% share of defective
// rows so the cleaning stage always has work to do.
package generator

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
)

// avgRowBytes is the approximate size of one CSV row, used to convert
// a target dataset size into a row count.
const avgRowBytes = 100

// defectShare is the fraction of rows per file that receive an
// injected data quality issue.
const defectShare = 0.05

// header is the column order of every generated file.
var header = []string{"date", "product_id", "quantity", "price", "customer_id", "region", "category"}

var (
	regions    = []string{"North", "South", "East", "West", "Central"}
	categories = []string{"Electronics", "Clothing", "Food", "Books", "Home"}
)

// datasetStart anchors all generated dates; each row falls within one
// year of it.
var datasetStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator writes a multi-file synthetic dataset described by its
// configuration.
type Generator struct {
	cfg    config.GeneratorConfig
	logger *slog.Logger

	// Out receives progress output. Defaults to os.Stdout.
	Out io.Writer
}

// Summary describes a completed generation run.
type Summary struct {
	Files       int
	RowsWritten int
	TotalBytes  int64
}

// New creates a generator from configuration.
func New(cfg config.GeneratorConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "generator"),
		Out:    os.Stdout,
	}
}

// Run generates the full dataset. Files are produced concurrently but
// named and reported in order, so a given seed always yields
// byte-identical output.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	ctx = infrastructure.EnsureRunID(ctx)

	targetBytes, err := ParseSize(g.cfg.TargetSize)
	if err != nil {
		return nil, err
	}
	targetMB := float64(targetBytes) / (1024 * 1024)

	numFiles := g.cfg.Files
	if numFiles <= 0 {
		numFiles = autoFileCount(targetMB)
	}

	totalRows := int(targetBytes / avgRowBytes)
	rowsPerFile := totalRows / numFiles
	if rowsPerFile < 1 {
		return nil, fmt.Errorf("target size %s is too small for %d files", g.cfg.TargetSize, numFiles)
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(g.Out, "\n%s\n", rule)
	fmt.Fprintf(g.Out, "Generating Dataset: %s\n", g.cfg.TargetSize)
	fmt.Fprintf(g.Out, "%s\n\n", rule)
	fmt.Fprintf(g.Out, "Target size: %.2f MB\n", targetMB)
	fmt.Fprintf(g.Out, "Number of files: %d\n", numFiles)
	fmt.Fprintf(g.Out, "Estimated total rows: %d\n", totalRows)
	fmt.Fprintf(g.Out, "Rows per file: %d\n\n", rowsPerFile)

	if err := os.MkdirAll(g.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	baseSeed := g.cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	g.logger.InfoContext(ctx, "generating dataset",
		slog.String("target_size", g.cfg.TargetSize),
		slog.Int("files", numFiles),
		slog.Int("rows_per_file", rowsPerFile),
		slog.Int64("seed", baseSeed))

	sizes := make([]int64, numFiles)
	gr, _ := errgroup.WithContext(ctx)
	for i := 0; i < numFiles; i++ {
		gr.Go(func() error {
			path := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("sales_data_%04d.csv", i+1))
			rng := rand.New(rand.NewSource(baseSeed + int64(i)))
			size, err := g.writeFile(path, rowsPerFile, rng)
			if err != nil {
				return err
			}
			sizes[i] = size
			return nil
		})
	}
	if err := gr.Wait(); err != nil {
		return nil, err
	}

	var totalBytes int64
	for i, size := range sizes {
		fmt.Fprintf(g.Out, "Generating file %d/%d... ✓ (%.2f MB)\n",
			i+1, numFiles, float64(size)/(1024*1024))
		totalBytes += size
	}

	fmt.Fprintf(g.Out, "\n%s\n", rule)
	fmt.Fprintf(g.Out, "Dataset Generation Complete\n")
	fmt.Fprintf(g.Out, "%s\n", rule)
	fmt.Fprintf(g.Out, "Total files: %d\n", numFiles)
	fmt.Fprintf(g.Out, "Total size: %.2f MB (%.2f GB)\n",
		float64(totalBytes)/(1024*1024), float64(totalBytes)/(1024*1024*1024))
	fmt.Fprintf(g.Out, "Output directory: %s\n", g.cfg.OutputDir)
	fmt.Fprintf(g.Out, "%s\n\n", rule)

	return &Summary{
		Files:       numFiles,
		RowsWritten: rowsPerFile * numFiles,
		TotalBytes:  totalBytes,
	}, nil
}

// writeFile generates one CSV file of numRows rows and returns its
// size on disk.
func (g *Generator) writeFile(path string, numRows int, rng *rand.Rand) (int64, error) {
	rows := generateRows(numRows, rng)
	injectDefects(rows, rng)

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write row %d of %s: %w", i, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// generateRows produces numRows fully valid rows in header column
// order.
func generateRows(numRows int, rng *rand.Rand) [][]string {
	rows := make([][]string, numRows)
	for i := range rows {
		date := datasetStart.AddDate(0, 0, rng.Intn(366))
		price := math.Round((10.0+rng.Float64()*990.0)*100) / 100

		rows[i] = []string{
			date.Format("2006-01-02"),
			fmt.Sprintf("PROD_%05d", 1+rng.Intn(1000)),
			strconv.Itoa(1 + rng.Intn(99)),
			strconv.FormatFloat(price, 'f', 2, 64),
			fmt.Sprintf("CUST_%06d", 1+rng.Intn(10000)),
			regions[rng.Intn(len(regions))],
			categories[rng.Intn(len(categories))],
		}
	}
	return rows
}

// injectDefects marks 5% of rows defective, split into thirds: a
// missing product id, a quantity of -1, and a price of 0. Rows are
// chosen without replacement, so no row carries two defects.
func injectDefects(rows [][]string, rng *rand.Rand) {
	numBad := int(float64(len(rows)) * defectShare)
	if numBad == 0 {
		return
	}
	bad := rng.Perm(len(rows))[:numBad]

	third := numBad / 3
	for _, idx := range bad[:third] {
		rows[idx][1] = ""
	}
	for _, idx := range bad[third : 2*third] {
		rows[idx][2] = "-1"
	}
	for _, idx := range bad[2*third:] {
		rows[idx][3] = "0"
	}
}

// ParseSize converts a human-readable size such as "1GB", "500MB" or
// "100KB" into bytes. Matching is case-insensitive, the numeric part
// may be fractional, and a bare integer is taken as raw bytes.
func ParseSize(size string) (int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(size))

	units := []struct {
		suffix     string
		multiplier int64
	}{
		{"KB", 1 << 10},
		{"MB", 1 << 20},
		{"GB", 1 << 30},
	}
	for _, unit := range units {
		if !strings.HasSuffix(normalized, unit.suffix) {
			continue
		}
		number, err := strconv.ParseFloat(strings.TrimSuffix(normalized, unit.suffix), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size format %q: use a value like 1GB, 500MB or 100KB", size)
		}
		return int64(number * float64(unit.multiplier)), nil
	}

	if bytes, err := strconv.ParseInt(normalized, 10, 64); err == nil && bytes > 0 {
		return bytes, nil
	}
	return 0, fmt.Errorf("invalid size format %q: use a value like 1GB, 500MB or 100KB", size)
}

// autoFileCount picks the file count for a target size when none was
// configured. Larger datasets are split across more files.
func autoFileCount(targetMB float64) int {
	switch {
	case targetMB < 100:
		return 5
	case targetMB < 1000:
		return 20
	case targetMB < 10000:
		return 50
	default:
		return 200
	}
}
