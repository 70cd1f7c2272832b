package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxDatasetSize = 500

// LoadDataset reads a labeled clip dataset from a CSV file with a header row
// followed by path,expected_label rows. Malformed rows are skipped. A limit
// of 0 or less applies MaxDatasetSize.
func LoadDataset(path string, limit int) ([]DatasetItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("dataset file must have at least a header and one row")
	}

	// Skip header row (index 0), parse data rows
	dataset := make([]DatasetItem, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue // Skip malformed rows
		}
		clipPath := strings.TrimSpace(record[0])
		label := strings.TrimSpace(record[1])
		if clipPath == "" || label == "" {
			continue
		}
		dataset = append(dataset, DatasetItem{
			Path:          clipPath,
			ExpectedLabel: label,
		})
	}

	return trimDataset(dataset, limit), nil
}

// trimDataset trims the dataset to the specified limit
func trimDataset(dataset []DatasetItem, limit int) []DatasetItem {
	if limit <= 0 {
		limit = MaxDatasetSize
	}
	if len(dataset) > limit {
		return dataset[:limit]
	}
	return dataset
}

// SaveMetricsToFile writes the metrics to a timestamped JSON file in dir and
// returns the path.
func SaveMetricsToFile(metrics Metrics, dir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	random := uuid.New().String()[:8]
	filename := filepath.Join(dir, fmt.Sprintf("metrics_%s_%s.json", timestamp, random))

	jsonData, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return "", err
	}

	return filename, nil
}

// SaveResultsToFile writes the per-clip outcomes to a timestamped JSON file
// in dir and returns the path.
func SaveResultsToFile(outcomes []Outcome, dir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	random := uuid.New().String()[:8]
	filename := filepath.Join(dir, fmt.Sprintf("results_%s_%s.json", timestamp, random))

	jsonData, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return "", err
	}

	return filename, nil
}
