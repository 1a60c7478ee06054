package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/signalhand/internal/timing"
)

// Setting keys.
const (
	KeyGesturesEnabled = "gestures.enabled"
	keyTimingPrefix    = "timing."
)

// TimingKey returns the settings key that holds a channel's duration.
func TimingKey(ch timing.Channel) string {
	return keyTimingPrefix + string(ch)
}

// SettingsRepository stores key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// LoadTiming returns the stored durations. Channels without a stored value,
// or with a value that does not parse, keep the value from defaults. The
// result is clamped.
func (r *SettingsRepository) LoadTiming(defaults timing.Params) (timing.Params, error) {
	p := timing.NewStore(defaults)
	for _, ch := range timing.Channels {
		raw, err := r.Get(TimingKey(ch))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return defaults, fmt.Errorf("failed to load %s duration: %w", ch, err)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		p.Set(ch, v)
	}
	return p.Params(), nil
}

// SaveTiming stores all three durations in one transaction.
func (r *SettingsRepository) SaveTiming(p timing.Params) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, ch := range timing.Channels {
		_, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			TimingKey(ch), strconv.Itoa(p.Get(ch)), now,
		)
		if err != nil {
			return fmt.Errorf("failed to save %s duration: %w", ch, err)
		}
	}
	return tx.Commit()
}

// LoadEnabled returns the stored gesture toggle, or def when unset.
func (r *SettingsRepository) LoadEnabled(def bool) (bool, error) {
	raw, err := r.Get(KeyGesturesEnabled)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return enabled, nil
}

// SaveEnabled stores the gesture toggle.
func (r *SettingsRepository) SaveEnabled(enabled bool) error {
	return r.Set(KeyGesturesEnabled, strconv.FormatBool(enabled))
}
