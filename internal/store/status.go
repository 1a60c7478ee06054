package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/signalhand/internal/protocol"
)

// StatusReport is a decoded status line together with the device state it produced.
type StatusReport struct {
	ID        int64
	Line      string
	Device    protocol.DeviceState
	CreatedAt time.Time
}

// StatusRepository records controller status reports.
type StatusRepository struct {
	db *sql.DB
}

// Status returns the status repository for this store.
func (s *Store) Status() *StatusRepository {
	return &StatusRepository{db: s.db}
}

// Create inserts a report and sets its ID.
func (r *StatusRepository) Create(rep *StatusReport) error {
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}
	rep.CreatedAt = rep.CreatedAt.UTC()

	d := rep.Device
	result, err := r.db.Exec(
		`INSERT INTO status_reports (line, mode, brightness, red, yellow, green, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.Line, d.Mode, d.Brightness, d.Red, d.Yellow, d.Green, rep.CreatedAt,
	)
	if err != nil {
		return err
	}
	rep.ID, err = result.LastInsertId()
	return err
}

// Latest returns the most recent report, or ErrNotFound.
func (r *StatusRepository) Latest() (*StatusReport, error) {
	reports, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNotFound
	}
	return reports[0], nil
}

// List returns up to limit reports, newest first. A limit <= 0 returns all.
func (r *StatusRepository) List(limit int) ([]*StatusReport, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, line, mode, brightness, red, yellow, green, created_at
		 FROM status_reports ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*StatusReport
	for rows.Next() {
		rep := &StatusReport{}
		d := &rep.Device
		if err := rows.Scan(&rep.ID, &rep.Line, &d.Mode, &d.Brightness, &d.Red, &d.Yellow, &d.Green, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

// Prune deletes reports created before cutoff.
func (r *StatusRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM status_reports WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
