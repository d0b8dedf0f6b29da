package config

import (
	"os"
	"path/filepath"
	"strings"

	"encoding/json"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"gopkg.in/yaml.v3"
)

// Default parameter values, matching the validated strategy settings.
const (
	DefaultCapitalInitial  = 1000.0
	DefaultRiskPerTrade    = 10.0
	DefaultGainMultiplier  = 1.0
	DefaultRSIOversold     = 30.0
	DefaultRSIOverbought   = 70.0
	DefaultEMAPeriod       = 200
	DefaultSlopeLookback   = 5
	DefaultSLBufferPct     = 0.001
	DefaultTPRatio         = 0.5
	DefaultMTFRSIPeriod    = 14
	DefaultMTFInterval     = "15m"
	DefaultDayBoundaryHour = 0

	DefaultMaxDailyTrades       = 50
	DefaultMaxDailyLoss         = 100.0
	DefaultMaxConsecutiveLosses = 5
	DefaultEmergencyStopLoss    = 500.0
)

// Config is the complete engine configuration. It is read-only after
// construction: each component receives the values it needs through its
// constructor and never mutates them.
type Config struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Interval string `json:"interval" yaml:"interval"`

	Capital    CapitalConfig    `json:"capital" yaml:"capital"`
	Martingale MartingaleConfig `json:"martingale" yaml:"martingale"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Filters    FilterConfig     `json:"filters" yaml:"filters"`
	Safety     SafetyLimits     `json:"safety_limits" yaml:"safety_limits"`

	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Exchange      *ExchangeConfig     `json:"exchange,omitempty" yaml:"exchange,omitempty"`
}

// CapitalConfig holds account and sizing parameters.
type CapitalConfig struct {
	Initial        float64 `json:"initial" yaml:"initial"`                 // starting capital
	RiskPerTrade   float64 `json:"risk_per_trade" yaml:"risk_per_trade"`   // base risk units per trade
	GainMultiplier float64 `json:"gain_multiplier" yaml:"gain_multiplier"` // scales realized gains
}

// MartingaleType selects the streak-scaling policy.
type MartingaleType string

const (
	MartingaleNone    MartingaleType = "none"
	MartingaleNormal  MartingaleType = "normal"  // scale up after losses
	MartingaleReverse MartingaleType = "reverse" // scale up after wins
)

// MartingaleConfig holds position scaling parameters.
type MartingaleConfig struct {
	Enabled      bool           `json:"enabled" yaml:"enabled"`
	Type         MartingaleType `json:"type" yaml:"type"`
	Multiplier   float64        `json:"multiplier" yaml:"multiplier"`
	WinStreakMax int            `json:"win_streak_max" yaml:"win_streak_max"`
}

// StrategyConfig holds signal and exit parameters.
type StrategyConfig struct {
	RSIPeriods    []int   `json:"rsi_periods" yaml:"rsi_periods"` // exactly three periods required
	RSIOversold   float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought"`

	MTFRSIPeriod int    `json:"rsi_mtf_period" yaml:"rsi_mtf_period"`
	MTFInterval  string `json:"rsi_mtf_tf" yaml:"rsi_mtf_tf"`

	EMAPeriod     int `json:"ema_period" yaml:"ema_period"`
	SlopeLookback int `json:"ema_slope_lookback" yaml:"ema_slope_lookback"`

	SLBufferPct float64 `json:"sl_buffer_pct" yaml:"sl_buffer_pct"`
	TPRatio     float64 `json:"tp_ratio" yaml:"tp_ratio"`
}

// FilterConfig enables the optional confirmation filters.
type FilterConfig struct {
	HeikinAshi bool `json:"filter_ha" yaml:"filter_ha"`
	Trend      bool `json:"filter_trend" yaml:"filter_trend"`
	MTFRSI     bool `json:"filter_mtf_rsi" yaml:"filter_mtf_rsi"`
}

// SafetyLimits holds the risk governor thresholds.
type SafetyLimits struct {
	MaxDailyTrades       int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	MaxDailyLoss         float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	EmergencyStopLoss    float64 `json:"emergency_stop_loss" yaml:"emergency_stop_loss"`

	// Hour of day (UTC) at which daily counters reset.
	DayBoundaryHour int `json:"day_boundary_hour" yaml:"day_boundary_hour"`
}

// NotificationConfig holds alerting settings. Secrets come from the
// environment, not the config file.
type NotificationConfig struct {
	TelegramEnabled bool `json:"telegram_enabled" yaml:"telegram_enabled"`
	DiscordEnabled  bool `json:"discord_enabled" yaml:"discord_enabled"`
}

// ExchangeConfig holds live trading connectivity settings.
type ExchangeConfig struct {
	Name     string `json:"name" yaml:"name"`         // "bybit"
	Category string `json:"category" yaml:"category"` // "spot" or "linear"
	Testnet  bool   `json:"testnet" yaml:"testnet"`
	Demo     bool   `json:"demo" yaml:"demo"`
}

// Load reads the configuration from a JSON or YAML file, applies
// defaults and validates the result.
func Load(configFile string) (*Config, error) {
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, boterrors.NewConfigError("config", "failed to read %s: %v", configFile, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, boterrors.NewConfigError("config", "failed to parse %s: %v", configFile, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration populated with the validated default
// strategy parameters.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills in zero-valued parameters.
func (c *Config) SetDefaults() {
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.Capital.Initial == 0 {
		c.Capital.Initial = DefaultCapitalInitial
	}
	if c.Capital.RiskPerTrade == 0 {
		c.Capital.RiskPerTrade = DefaultRiskPerTrade
	}
	if c.Capital.GainMultiplier == 0 {
		c.Capital.GainMultiplier = DefaultGainMultiplier
	}
	if c.Martingale.Type == "" {
		c.Martingale.Type = MartingaleNone
	}
	if c.Martingale.Multiplier == 0 {
		c.Martingale.Multiplier = 2.0
	}
	if c.Martingale.WinStreakMax == 0 {
		c.Martingale.WinStreakMax = 3
	}
	if len(c.Strategy.RSIPeriods) == 0 {
		c.Strategy.RSIPeriods = []int{5, 14, 21}
	}
	if c.Strategy.RSIOversold == 0 {
		c.Strategy.RSIOversold = DefaultRSIOversold
	}
	if c.Strategy.RSIOverbought == 0 {
		c.Strategy.RSIOverbought = DefaultRSIOverbought
	}
	if c.Strategy.MTFRSIPeriod == 0 {
		c.Strategy.MTFRSIPeriod = DefaultMTFRSIPeriod
	}
	if c.Strategy.MTFInterval == "" {
		c.Strategy.MTFInterval = DefaultMTFInterval
	}
	if c.Strategy.EMAPeriod == 0 {
		c.Strategy.EMAPeriod = DefaultEMAPeriod
	}
	if c.Strategy.SlopeLookback == 0 {
		c.Strategy.SlopeLookback = DefaultSlopeLookback
	}
	if c.Strategy.SLBufferPct == 0 {
		c.Strategy.SLBufferPct = DefaultSLBufferPct
	}
	if c.Strategy.TPRatio == 0 {
		c.Strategy.TPRatio = DefaultTPRatio
	}
	if c.Safety.MaxDailyTrades == 0 {
		c.Safety.MaxDailyTrades = DefaultMaxDailyTrades
	}
	if c.Safety.MaxDailyLoss == 0 {
		c.Safety.MaxDailyLoss = DefaultMaxDailyLoss
	}
	if c.Safety.MaxConsecutiveLosses == 0 {
		c.Safety.MaxConsecutiveLosses = DefaultMaxConsecutiveLosses
	}
	if c.Safety.EmergencyStopLoss == 0 {
		c.Safety.EmergencyStopLoss = DefaultEmergencyStopLoss
	}
}

// Validate checks parameter coherence. All failures are fatal at
// startup.
func (c *Config) Validate() error {
	if len(c.Strategy.RSIPeriods) != 3 {
		return boterrors.NewConfigError("config", "rsi_periods requires exactly 3 periods, got %d", len(c.Strategy.RSIPeriods))
	}
	for _, p := range c.Strategy.RSIPeriods {
		if p < 2 {
			return boterrors.NewConfigError("config", "rsi period %d is below minimum of 2", p)
		}
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		return boterrors.NewConfigError("config", "rsi_oversold (%.1f) must be below rsi_overbought (%.1f)",
			c.Strategy.RSIOversold, c.Strategy.RSIOverbought)
	}
	if c.Strategy.TPRatio <= 0 {
		return boterrors.NewConfigError("config", "tp_ratio must be positive, got %.3f", c.Strategy.TPRatio)
	}
	if c.Strategy.SLBufferPct < 0 || c.Strategy.SLBufferPct >= 1 {
		return boterrors.NewConfigError("config", "sl_buffer_pct must be in [0, 1), got %.3f", c.Strategy.SLBufferPct)
	}
	if c.Capital.Initial <= 0 {
		return boterrors.NewConfigError("config", "capital initial must be positive, got %.2f", c.Capital.Initial)
	}
	if c.Capital.RiskPerTrade <= 0 {
		return boterrors.NewConfigError("config", "risk_per_trade must be positive, got %.2f", c.Capital.RiskPerTrade)
	}
	if c.Martingale.Enabled {
		switch c.Martingale.Type {
		case MartingaleNone, MartingaleNormal, MartingaleReverse:
		default:
			return boterrors.NewConfigError("config", "unknown martingale type %q", c.Martingale.Type)
		}
		if c.Martingale.Multiplier <= 0 {
			return boterrors.NewConfigError("config", "martingale multiplier must be positive, got %.2f", c.Martingale.Multiplier)
		}
		if c.Martingale.WinStreakMax < 1 {
			return boterrors.NewConfigError("config", "win_streak_max must be at least 1, got %d", c.Martingale.WinStreakMax)
		}
	}
	if c.Safety.MaxDailyTrades < 1 {
		return boterrors.NewConfigError("config", "max_daily_trades must be at least 1, got %d", c.Safety.MaxDailyTrades)
	}
	if c.Safety.MaxDailyLoss <= 0 {
		return boterrors.NewConfigError("config", "max_daily_loss must be positive, got %.2f", c.Safety.MaxDailyLoss)
	}
	if c.Safety.MaxConsecutiveLosses < 1 {
		return boterrors.NewConfigError("config", "max_consecutive_losses must be at least 1, got %d", c.Safety.MaxConsecutiveLosses)
	}
	if c.Safety.EmergencyStopLoss <= 0 {
		return boterrors.NewConfigError("config", "emergency_stop_loss must be positive, got %.2f", c.Safety.EmergencyStopLoss)
	}
	if c.Safety.DayBoundaryHour < 0 || c.Safety.DayBoundaryHour > 23 {
		return boterrors.NewConfigError("config", "day_boundary_hour must be in [0, 23], got %d", c.Safety.DayBoundaryHour)
	}
	return nil
}
