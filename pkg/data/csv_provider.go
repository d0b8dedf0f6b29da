package data

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// CSVProvider implements Provider for CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the default column format.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom format.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads and validates historical bars from a CSV file. Any
// malformed row fails the whole load: a backtest over silently patched
// data is worthless.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, boterrors.NewDataError("csv", "failed to open %s: %v", source, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, boterrors.NewDataError("csv", "failed to read header of %s: %v", source, err)
	}

	var bars []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, boterrors.NewDataError("csv", "read error at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			return nil, boterrors.NewDataError("csv", "line %d has %d columns, need %d", lineNum, len(record), p.format.MinColumns)
		}

		timestamp, err := parseTimestamp(record[p.format.TimestampCol], p.format.DateFormat)
		if err != nil {
			return nil, boterrors.NewDataError("csv", "invalid timestamp %q at line %d: %v", record[p.format.TimestampCol], lineNum, err)
		}

		bar := types.OHLCV{Timestamp: timestamp}
		fields := []struct {
			col  int
			dst  *float64
			name string
		}{
			{p.format.OpenCol, &bar.Open, "open"},
			{p.format.HighCol, &bar.High, "high"},
			{p.format.LowCol, &bar.Low, "low"},
			{p.format.CloseCol, &bar.Close, "close"},
			{p.format.VolumeCol, &bar.Volume, "volume"},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(record[f.col], 64)
			if err != nil {
				return nil, boterrors.NewDataError("csv", "invalid %s %q at line %d: %v", f.name, record[f.col], lineNum, err)
			}
			*f.dst = v
		}

		bars = append(bars, bar)
	}

	if err := p.ValidateData(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// parseTimestamp accepts either the configured datetime layout or a
// unix millisecond epoch, which some exchange exports use.
func parseTimestamp(raw, layout string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(layout, raw)
}

// ValidateData checks price coherence and the strictly increasing
// timestamp contract.
func (p *CSVProvider) ValidateData(bars []types.OHLCV) error {
	if len(bars) == 0 {
		return boterrors.NewDataError("csv", "no bars loaded")
	}

	for i, bar := range bars {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return boterrors.NewDataError("csv", "non-positive price at index %d", i)
		}
		if bar.High < bar.Low {
			return boterrors.NewDataError("csv", "high %.4f below low %.4f at index %d", bar.High, bar.Low, i)
		}
		if bar.High < bar.Open || bar.High < bar.Close {
			return boterrors.NewDataError("csv", "high %.4f below open/close at index %d", bar.High, i)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			return boterrors.NewDataError("csv", "low %.4f above open/close at index %d", bar.Low, i)
		}
		if i > 0 && !bar.Timestamp.After(bars[i-1].Timestamp) {
			return boterrors.NewDataError("csv", "timestamp at index %d not strictly increasing", i)
		}
	}
	return nil
}
