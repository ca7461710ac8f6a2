package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader loads lifetime observations from xlsx, csv or json files
type DataReader struct {
	filePath string
	fileType string // "xlsx", "csv" or "json"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader whose format follows the file extension
func NewDataReader(filePath string, config ReaderConfig, logger *internal.Logger) *DataReader {
	fileType := "xlsx"
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		fileType = "csv"
	case ".json":
		fileType = "json"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   logger.With("DataReader"),
	}
}

// ReadDataset reads and validates the observations
func (r *DataReader) ReadDataset() (*lifetime.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	start := time.Now()
	var (
		obs []lifetime.Observation
		err error
	)
	switch r.fileType {
	case "json":
		obs, err = r.readJSON()
	case "csv":
		obs, err = r.readCSV()
	default:
		obs, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s file read in %.2fms (%d observations)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6, len(obs))

	return lifetime.NewDataset(obs)
}

func (r *DataReader) readExcel() ([]lifetime.Observation, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return r.processRows(rows)
}

func (r *DataReader) readCSV() ([]lifetime.Observation, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return r.processRows(rows)
}

// readJSON accepts either a bare array of observations or {"lifetimes": [...]}
func (r *DataReader) readJSON() ([]lifetime.Observation, error) {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	var obs []lifetime.Observation
	if err := json.Unmarshal(data, &obs); err == nil {
		return obs, nil
	}
	var body struct {
		Lifetimes []lifetime.Observation `json:"lifetimes"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, core.NewValidationError("json", err.Error())
	}
	return body.Lifetimes, nil
}

// processRows maps a header row plus data rows onto observations. Blank rows are skipped.
func (r *DataReader) processRows(rows [][]string) ([]lifetime.Observation, error) {
	if len(rows) < 2 {
		return nil, core.NewValidationError("rows", "file must have a header row and at least one data row")
	}

	columns, err := r.config.resolve(rows[0])
	if err != nil {
		return nil, err
	}

	obs := make([]lifetime.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		o, err := columns.observation(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// columnIndex locates the lifetime columns within a header row
type columnIndex struct {
	lifetime  int
	upper     int // -1 when absent
	censoring int
}

func (c columnIndex) observation(row []string) (lifetime.Observation, error) {
	cens, err := lifetime.ParseCensoring(cell(row, c.censoring))
	if err != nil {
		return lifetime.Observation{}, err
	}
	lower, err := parseHours(c.lifetime, cell(row, c.lifetime))
	if err != nil {
		return lifetime.Observation{}, err
	}

	upperRaw := ""
	if c.upper >= 0 {
		upperRaw = cell(row, c.upper)
	}

	if cens != lifetime.Interval {
		if upperRaw != "" {
			return lifetime.Observation{}, core.NewValidationError("upper", "only interval rows carry an upper bound")
		}
		return lifetime.Observation{Value: lifetime.Scalar(lower), Censoring: cens}, nil
	}
	if upperRaw == "" {
		return lifetime.Observation{}, core.NewValidationError("upper", "interval rows need an upper bound")
	}
	upper, err := parseHours(c.upper, upperRaw)
	if err != nil {
		return lifetime.Observation{}, err
	}
	return lifetime.Observation{Value: lifetime.Bounds(lower, upper), Censoring: cens}, nil
}

func parseHours(col int, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.NewValidationError(fmt.Sprintf("column %d", col+1), fmt.Sprintf("%q is not a number", raw))
	}
	return v, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
