package data

import (
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Provider loads historical bars from a source.
type Provider interface {
	// LoadData loads historical bars from the specified source.
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded bars.
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the provider.
	GetName() string
}

// CSVColumnMapping defines the column positions for different CSV formats.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches the exported kline CSVs:
// timestamp,open,high,low,close,volume with a datetime first column.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
