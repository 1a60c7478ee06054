package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// EventKind is the kind of a recorded event.
type EventKind string

const (
	// EventKindGesture is a mode gesture that passed debounce.
	EventKindGesture EventKind = "gesture"
	// EventKindTiming is an applied duration change.
	EventKindTiming EventKind = "timing"
)

// Event is a recorded gesture or timing change.
type Event struct {
	ID        string
	Kind      EventKind
	Label     string
	Channel   string
	Value     int
	Source    string
	Commands  []string
	CreatedAt time.Time
}

// EventRepository records controller events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event. A zero CreatedAt is set to now.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	commands := e.Commands
	if commands == nil {
		commands = []string{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO gesture_events (id, kind, label, channel, value, source, commands, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Label, e.Channel, e.Value, e.Source, string(data), e.CreatedAt,
	)
	return err
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(id string) (*Event, error) {
	row := r.db.QueryRow(
		`SELECT id, kind, label, channel, value, source, commands, created_at
		 FROM gesture_events WHERE id = ?`,
		id,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns up to limit events, newest first. A limit <= 0 returns all.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, kind, label, channel, value, source, commands, created_at
		 FROM gesture_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Prune deletes events created before cutoff and returns how many were removed.
func (r *EventRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM gesture_events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*Event, error) {
	e := &Event{}
	var kind, commands string
	if err := s.Scan(&e.ID, &kind, &e.Label, &e.Channel, &e.Value, &e.Source, &commands, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Kind = EventKind(kind)
	if err := json.Unmarshal([]byte(commands), &e.Commands); err != nil {
		return nil, err
	}
	return e, nil
}
