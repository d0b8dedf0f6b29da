package data

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadData_Valid(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2025-06-01 00:00:00,100,101,99,100.5,1500
2025-06-01 00:01:00,100.5,102,100,101.2,1800
2025-06-01 00:02:00,101.2,101.5,100.8,101.0,900
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadData(path)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.2, bars[1].Close)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 2, 0, 0, time.UTC), bars[2].Timestamp)
}

func TestLoadData_UnixMilliTimestamps(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var content string
	content = "timestamp,open,high,low,close,volume\n"
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute).UnixMilli()
		content += fmt.Sprintf("%d,100,101,99,100.5,1000\n", ts)
	}

	provider := NewCSVProvider()
	bars, err := provider.LoadData(writeCSV(t, content))
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, base, bars[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), bars[2].Timestamp)
}

func TestLoadData_MalformedRowFailsWholeLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "bad price",
			content: `timestamp,open,high,low,close,volume
2025-06-01 00:00:00,100,101,99,100.5,1500
2025-06-01 00:01:00,abc,102,100,101.2,1800
`,
			wantMsg: "invalid open",
		},
		{
			name: "bad timestamp",
			content: `timestamp,open,high,low,close,volume
not-a-date,100,101,99,100.5,1500
`,
			wantMsg: "invalid timestamp",
		},
		{
			name: "too few columns",
			content: `timestamp,open,high,low,close,volume
2025-06-01 00:00:00,100,101
`,
			wantMsg: "columns",
		},
	}

	provider := NewCSVProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := provider.LoadData(writeCSV(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, bars)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, boterrors.ErrorCategoryData, boterrors.CategoryOf(err))
		})
	}
}

func TestLoadData_MissingFile(t *testing.T) {
	provider := NewCSVProvider()
	_, err := provider.LoadData(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, boterrors.ErrorCategoryData, boterrors.CategoryOf(err))
}

func TestValidateData(t *testing.T) {
	provider := NewCSVProvider()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	bar := func(i int) types.OHLCV {
		return types.OHLCV{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, provider.ValidateData([]types.OHLCV{bar(0), bar(1)}))
	})

	t.Run("empty", func(t *testing.T) {
		err := provider.ValidateData(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no bars")
	})

	t.Run("non-positive price", func(t *testing.T) {
		b := bar(0)
		b.Close = 0
		err := provider.ValidateData([]types.OHLCV{b})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-positive")
	})

	t.Run("high below low", func(t *testing.T) {
		b := bar(0)
		b.High, b.Low = 99, 101
		b.Open, b.Close = 100, 100
		err := provider.ValidateData([]types.OHLCV{b})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "below low")
	})

	t.Run("high below close", func(t *testing.T) {
		b := bar(0)
		b.Close = 102
		err := provider.ValidateData([]types.OHLCV{b})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "below open/close")
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		err := provider.ValidateData([]types.OHLCV{bar(0), bar(0)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly increasing")
	})

	t.Run("out of order timestamp", func(t *testing.T) {
		err := provider.ValidateData([]types.OHLCV{bar(1), bar(0)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly increasing")
	})
}
