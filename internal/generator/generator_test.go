package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/config"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "100KB", want: 100 * 1024},
		{input: "500MB", want: 500 * 1024 * 1024},
		{input: "1GB", want: 1 << 30},
		{input: "1.5MB", want: 1572864},
		{input: "1gb", want: 1 << 30},
		{input: "  1GB  ", want: 1 << 30},
		{input: "1048576", want: 1 << 20},
		{input: "1TB", wantErr: true},
		{input: "GB", wantErr: true},
		{input: "-100", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid size format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAutoFileCount(t *testing.T) {
	tests := []struct {
		targetMB float64
		want     int
	}{
		{50, 5},
		{99.99, 5},
		{100, 20},
		{999, 20},
		{1000, 50},
		{9999, 50},
		{10000, 200},
		{51200, 200},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, autoFileCount(tt.targetMB), "targetMB=%v", tt.targetMB)
	}
}

func generateTestDataset(t *testing.T, cfg config.GeneratorConfig) (*Summary, string) {
	t.Helper()
	gen := New(cfg, nil)
	var out bytes.Buffer
	gen.Out = &out

	summary, err := gen.Run(context.Background())
	require.NoError(t, err)
	return summary, out.String()
}

func readGeneratedFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestGeneratorProducesRequestedFiles(t *testing.T) {
	dir := t.TempDir()
	summary, output := generateTestDataset(t, config.GeneratorConfig{
		OutputDir:  dir,
		TargetSize: "50KB",
		Files:      2,
		Seed:       42,
	})

	assert.Equal(t, 2, summary.Files)
	// 51200 bytes at ~100 bytes per row, split across two files.
	assert.Equal(t, 512, summary.RowsWritten)
	assert.Greater(t, summary.TotalBytes, int64(0))

	for _, name := range []string{"sales_data_0001.csv", "sales_data_0002.csv"} {
		rows := readGeneratedFile(t, filepath.Join(dir, name))
		require.NotEmpty(t, rows)
		assert.Equal(t,
			[]string{"date", "product_id", "quantity", "price", "customer_id", "region", "category"},
			rows[0])
		assert.Len(t, rows, 257, "header plus 256 data rows")
	}

	assert.Contains(t, output, "Generating Dataset: 50KB")
	assert.Contains(t, output, "Number of files: 2")
	assert.Contains(t, output, "Generating file 1/2...")
	assert.Contains(t, output, "Dataset Generation Complete")
	assert.Contains(t, output, "Output directory: "+dir)
}

func TestGeneratedRowsAreWellFormed(t *testing.T) {
	dir := t.TempDir()
	generateTestDataset(t, config.GeneratorConfig{
		OutputDir:  dir,
		TargetSize: "100KB",
		Files:      1,
		Seed:       7,
	})

	productPattern := regexp.MustCompile(`^PROD_\d{5}$`)
	customerPattern := regexp.MustCompile(`^CUST_\d{6}$`)
	regionSet := map[string]bool{"North": true, "South": true, "East": true, "West": true, "Central": true}
	categorySet := map[string]bool{"Electronics": true, "Clothing": true, "Food": true, "Books": true, "Home": true}

	rows := readGeneratedFile(t, filepath.Join(dir, "sales_data_0001.csv"))
	require.Greater(t, len(rows), 1)

	for _, row := range rows[1:] {
		require.Len(t, row, 7)

		date, err := time.Parse("2006-01-02", row[0])
		require.NoError(t, err)
		assert.False(t, date.Before(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, date.After(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

		if row[1] != "" {
			assert.Regexp(t, productPattern, row[1])
		}

		quantity, err := strconv.Atoi(row[2])
		require.NoError(t, err)
		if quantity != -1 {
			assert.GreaterOrEqual(t, quantity, 1)
			assert.LessOrEqual(t, quantity, 99)
		}

		price, err := strconv.ParseFloat(row[3], 64)
		require.NoError(t, err)
		if price != 0 {
			assert.GreaterOrEqual(t, price, 10.0)
			assert.LessOrEqual(t, price, 1000.0)
		}

		assert.Regexp(t, customerPattern, row[4])
		assert.True(t, regionSet[row[5]], "unknown region %q", row[5])
		assert.True(t, categorySet[row[6]], "unknown category %q", row[6])
	}
}

func TestGeneratorDefectRate(t *testing.T) {
	dir := t.TempDir()
	// 100KB at 100 bytes per row in one file gives 1024 rows, so 51
	// defects split 17/17/17.
	generateTestDataset(t, config.GeneratorConfig{
		OutputDir:  dir,
		TargetSize: "100KB",
		Files:      1,
		Seed:       99,
	})

	rows := readGeneratedFile(t, filepath.Join(dir, "sales_data_0001.csv"))
	require.Len(t, rows, 1025)

	var missingProduct, badQuantity, zeroPrice int
	for _, row := range rows[1:] {
		if row[1] == "" {
			missingProduct++
		}
		if row[2] == "-1" {
			badQuantity++
		}
		if row[3] == "0" {
			zeroPrice++
		}
	}

	assert.Equal(t, 17, missingProduct)
	assert.Equal(t, 17, badQuantity)
	assert.Equal(t, 17, zeroPrice)
}

func TestGeneratorDeterministicWithSeed(t *testing.T) {
	cfg := config.GeneratorConfig{TargetSize: "20KB", Files: 2, Seed: 1234}

	var contents [][]byte
	for i := 0; i < 2; i++ {
		dir := t.TempDir()
		cfg.OutputDir = dir
		generateTestDataset(t, cfg)

		first, err := os.ReadFile(filepath.Join(dir, "sales_data_0001.csv"))
		require.NoError(t, err)
		second, err := os.ReadFile(filepath.Join(dir, "sales_data_0002.csv"))
		require.NoError(t, err)
		contents = append(contents, append(first, second...))
	}

	assert.Equal(t, contents[0], contents[1], "same seed must reproduce the dataset byte for byte")
}

func TestGeneratorInvalidSize(t *testing.T) {
	gen := New(config.GeneratorConfig{OutputDir: t.TempDir(), TargetSize: "12QB"}, nil)
	gen.Out = &bytes.Buffer{}

	_, err := gen.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid size format")
}

func TestGeneratorSizeTooSmallForFiles(t *testing.T) {
	gen := New(config.GeneratorConfig{OutputDir: t.TempDir(), TargetSize: "1KB", Files: 50}, nil)
	gen.Out = &bytes.Buffer{}

	_, err := gen.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
}
