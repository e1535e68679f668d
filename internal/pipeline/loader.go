package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"salespipe/internal/config"
	"salespipe/internal/files"
	"salespipe/pkg/contracts/domain"
)

// Column names recognized in input file headers. Matching is
// case-insensitive and ignores surrounding whitespace.
const (
	colProductID  = "product_id"
	colQuantity   = "quantity"
	colPrice      = "price"
	colDate       = "date"
	colCustomerID = "customer_id"
	colRegion     = "region"
	colCategory   = "category"
)

// requiredColumns must be present in every input file.
var requiredColumns = []string{colProductID, colQuantity, colPrice}

// Loader reads every input CSV into memory. This is the memory-heavy
// stage: all rows of all files are materialized before the pipeline
// moves on.
type Loader struct {
	discovery *files.Discovery
	dataDir   string
	extension string
	parallel  bool
	logger    *slog.Logger
}

// fileData is the parsed content of a single input file.
type fileData struct {
	records []domain.Record
	hasDate bool
}

// NewLoader creates the load stage from pipeline configuration.
func NewLoader(cfg config.PipelineConfig, logger *slog.Logger) *Loader {
	return &Loader{
		discovery: files.NewDiscovery(""),
		dataDir:   cfg.DataDir,
		extension: cfg.FileExtension,
		parallel:  cfg.ParallelLoad,
		logger:    logger,
	}
}

func (l *Loader) ID() string   { return "load" }
func (l *Loader) Name() string { return "Load CSV files" }

// Execute discovers the input files and parses them all into
// state.Dataset. File order is the deterministic name order produced
// by discovery, regardless of loading mode.
func (l *Loader) Execute(ctx context.Context, state *RunState) error {
	state.printf("Loading CSV files from %s...\n", l.dataDir)

	inputs, err := l.discovery.FindInputFiles(l.dataDir, l.extension)
	if err != nil {
		return NewIOError(l.ID(), fmt.Sprintf("failed to list input files in %s", l.dataDir), err)
	}
	state.printf("Found %d CSV files\n", len(inputs))

	if len(inputs) == 0 {
		return NewConfigError(l.ID(), fmt.Sprintf("no CSV files found in %s", l.dataDir))
	}
	state.Files = inputs

	l.logger.InfoContext(ctx, "loading input files",
		slog.Int("file_count", len(inputs)),
		slog.Int64("total_bytes", files.TotalSize(inputs)),
		slog.Bool("parallel", l.parallel))

	var parsed []*fileData
	if l.parallel {
		parsed, err = l.loadParallel(ctx, inputs)
	} else {
		parsed, err = l.loadSequential(ctx, inputs, state)
	}
	if err != nil {
		return err
	}

	dataset := &domain.Dataset{HasDate: parsed[0].hasDate}
	for i, fd := range parsed {
		if fd.hasDate != dataset.HasDate {
			return NewConfigError(l.ID(), fmt.Sprintf(
				"inconsistent date column: %s disagrees with %s",
				inputs[i].Name, inputs[0].Name))
		}
		if l.parallel {
			state.printf("Loading file %d/%d: %s\n", i+1, len(inputs), inputs[i].Name)
		}
		dataset.Records = append(dataset.Records, fd.records...)
		state.sample()
	}
	state.Dataset = dataset

	state.printf("Total rows loaded: %d\n", dataset.Len())
	l.logger.InfoContext(ctx, "load complete",
		slog.Int("rows", dataset.Len()),
		slog.Bool("has_date", dataset.HasDate))
	return nil
}

// loadSequential parses files one at a time in discovery order,
// printing each file's progress line before reading it.
func (l *Loader) loadSequential(ctx context.Context, inputs []files.FileInfo, state *RunState) ([]*fileData, error) {
	parsed := make([]*fileData, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err, l.ID(), "load canceled")
		}
		state.printf("Loading file %d/%d: %s\n", i+1, len(inputs), input.Name)

		fd, err := l.parseFile(input.Path)
		if err != nil {
			return nil, err
		}
		parsed[i] = fd
		state.sample()
	}
	return parsed, nil
}

// loadParallel parses all files concurrently. Results are collected
// into a slice indexed by file position so discovery order is
// preserved when the runner merges them.
func (l *Loader) loadParallel(ctx context.Context, inputs []files.FileInfo) ([]*fileData, error) {
	parsed := make([]*fileData, len(inputs))

	g, _ := errgroup.WithContext(ctx)
	for i, input := range inputs {
		g.Go(func() error {
			fd, err := l.parseFile(input.Path)
			if err != nil {
				return err
			}
			parsed[i] = fd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseFile reads one CSV file completely. The header row determines
// the column layout; every following row becomes a Record. Field
// values that do not convert are stored as missing rather than
// reported as errors.
func (l *Loader) parseFile(path string) (*fileData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewIOError(l.ID(), fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, NewIOError(l.ID(), fmt.Sprintf("failed to read header of %s", path), err)
	}

	columnMap := mapColumns(header)
	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, NewConfigError(l.ID(), fmt.Sprintf(
				"could not find required column %q in %s", col, path))
		}
	}
	_, hasDate := columnMap[colDate]

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, NewIOError(l.ID(), fmt.Sprintf("failed to read %s", path), err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, buildRecord(row, columnMap))
	}
	return &fileData{records: records, hasDate: hasDate}, nil
}

// mapColumns maps recognized header names to their column index.
// Unknown columns are ignored.
func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int, len(header))
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colProductID:
			columnMap[colProductID] = i
		case colQuantity:
			columnMap[colQuantity] = i
		case colPrice:
			columnMap[colPrice] = i
		case colDate:
			columnMap[colDate] = i
		case colCustomerID:
			columnMap[colCustomerID] = i
		case colRegion:
			columnMap[colRegion] = i
		case colCategory:
			columnMap[colCategory] = i
		}
	}
	return columnMap
}

// buildRecord converts one CSV row using the column layout. Numeric
// fields that are empty or unconvertible become nil so the Cleaner
// can filter them.
func buildRecord(row []string, columnMap map[string]int) domain.Record {
	getField := func(col string) string {
		if idx, exists := columnMap[col]; exists && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	return domain.Record{
		DateText:   getField(colDate),
		ProductID:  getField(colProductID),
		Quantity:   parseQuantity(getField(colQuantity)),
		Price:      parsePrice(getField(colPrice)),
		CustomerID: getField(colCustomerID),
		Region:     getField(colRegion),
		Category:   getField(colCategory),
	}
}

func parseQuantity(value string) *int64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parsePrice(value string) *float64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
