package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vlemaire/triple-rsi-bot/internal/logger"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/sizing"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// SessionState is the complete recoverable state of one live session.
// Everything a restart needs to resume: balance, the open trade, the
// pending signal, the risk counters and the sizing streak.
type SessionState struct {
	Version      string    `json:"version"`
	Symbol       string    `json:"symbol"`
	LastUpdated  time.Time `json:"last_updated"`
	SessionStart time.Time `json:"session_start"`

	Balance   float64              `json:"balance"`
	OpenTrade *trade.Trade         `json:"open_trade,omitempty"`
	Pending   signal.PendingSignal `json:"pending_signal"`
	Risk      risk.State           `json:"risk_state"`
	Streak    sizing.StreakState   `json:"streak_state"`
}

// StatePersistence saves and loads the session state.
type StatePersistence struct {
	logger   *logger.Logger
	stateDir string
	symbol   string

	current *SessionState
	mu      sync.RWMutex

	autoSave     bool
	saveInterval time.Duration
	lastSave     time.Time
}

// NewStatePersistence creates a persistence manager.
func NewStatePersistence(log *logger.Logger, stateDir, symbol string) *StatePersistence {
	return &StatePersistence{
		logger:       log,
		stateDir:     stateDir,
		symbol:       symbol,
		current:      NewSessionState(symbol),
		autoSave:     true,
		saveInterval: time.Minute,
		lastSave:     time.Now(),
	}
}

// NewSessionState creates an empty session state.
func NewSessionState(symbol string) *SessionState {
	return &SessionState{
		Version:      "1.0.0",
		Symbol:       symbol,
		LastUpdated:  time.Now(),
		SessionStart: time.Now(),
	}
}

// Initialize prepares the state directory.
func (sp *StatePersistence) Initialize() error {
	if err := os.MkdirAll(sp.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	sp.logger.Info("State persistence initialized: %s", sp.stateDir)
	return nil
}

// LoadState loads a saved session from disk. A missing file is not an
// error: the session starts clean.
func (sp *StatePersistence) LoadState() (*SessionState, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	stateFile := sp.stateFile()
	if _, err := os.Stat(stateFile); os.IsNotExist(err) {
		sp.logger.Info("No existing state file found, starting with clean state")
		return nil, nil
	}

	data, err := os.ReadFile(stateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if err := sp.validateState(&state); err != nil {
		sp.logger.Warning("Loaded state has issues: %v, using clean state", err)
		return nil, nil
	}

	sp.current = &state
	sp.logger.Info("State loaded successfully from %s", stateFile)
	return &state, nil
}

// Update replaces the in-memory state and auto-saves on the configured
// interval.
func (sp *StatePersistence) Update(state *SessionState) {
	sp.mu.Lock()
	sp.current = state
	shouldSave := sp.autoSave && time.Since(sp.lastSave) > sp.saveInterval
	sp.mu.Unlock()

	if shouldSave {
		if err := sp.SaveState(); err != nil {
			sp.logger.LogError("auto save failed", err)
		}
	}
}

// SaveState writes the current state to disk atomically, keeping the
// previous file as a backup.
func (sp *StatePersistence) SaveState() error {
	sp.mu.RLock()
	state := *sp.current
	sp.mu.RUnlock()

	state.LastUpdated = time.Now()

	stateFile := sp.stateFile()
	backupFile := filepath.Join(sp.stateDir, fmt.Sprintf("%s_state_backup.json", sp.symbol))

	if _, err := os.Stat(stateFile); err == nil {
		if err := copyFile(stateFile, backupFile); err != nil {
			sp.logger.Warning("Failed to create state backup: %v", err)
		}
	}

	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempFile, stateFile); err != nil {
		return fmt.Errorf("failed to move state file: %w", err)
	}

	sp.mu.Lock()
	sp.lastSave = time.Now()
	sp.mu.Unlock()
	return nil
}

func (sp *StatePersistence) stateFile() string {
	return filepath.Join(sp.stateDir, fmt.Sprintf("%s_state.json", sp.symbol))
}

func (sp *StatePersistence) validateState(state *SessionState) error {
	if state.Symbol != sp.symbol {
		return fmt.Errorf("state symbol mismatch: expected %s, got %s", sp.symbol, state.Symbol)
	}
	if state.Version == "" {
		return fmt.Errorf("state version is empty")
	}
	if time.Since(state.LastUpdated) > 7*24*time.Hour {
		return fmt.Errorf("state is too old: %v", state.LastUpdated)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// Cleanup flushes the state a final time.
func (sp *StatePersistence) Cleanup() error {
	return sp.SaveState()
}
