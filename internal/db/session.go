package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/touchd/internal/touch"
)

// ErrUnknownSession is returned when a session id does not exist.
var ErrUnknownSession = errors.New("unknown session")

// Session is one recording run.
type Session struct {
	ID        string     `json:"id"`
	Device    string     `json:"device"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Frames    int        `json:"frames"`
}

// RecordedContact is a contact together with the frame it was recorded in.
type RecordedContact struct {
	Seq     uint64
	Time    time.Time
	Contact touch.Contact
}

// StartSession creates a session for device and returns its id.
func (db *DB) StartSession(device string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, device, started_unix_nanos) VALUES (?, ?, ?)`,
		id, device, db.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

// EndSession marks the session as finished. Ending a session twice keeps the
// first end time.
func (db *DB) EndSession(session string) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_unix_nanos = COALESCE(ended_unix_nanos, ?) WHERE session_id = ?`,
		db.clock.Now().UnixNano(), session,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, session)
	}
	return nil
}

// RecordFrame stores every contact of one frame in a single transaction.
// Empty frames still count towards the session's frame total.
func (db *DB) RecordFrame(session string, seq uint64, at time.Time, frame touch.Frame) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.Exec(`UPDATE sessions SET frame_count = frame_count + 1 WHERE session_id = ?`, session)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, session)
	}

	if len(frame) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO contacts (
			session_id, seq, frame_unix_nanos, contact_index,
			x, y, minor, major, orientation,
			normalized, stable, valid
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range frame {
			var index sql.NullInt64
			if c.Index != nil {
				index = sql.NullInt64{Int64: int64(*c.Index), Valid: true}
			}
			if _, err := stmt.Exec(
				session, int64(seq), at.UnixNano(), index,
				c.Mean.X, c.Mean.Y, c.Size.X, c.Size.Y, c.Orientation,
				c.Normalized, c.Stable, c.Valid,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Sessions returns all sessions, most recent first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, device, started_unix_nanos, ended_unix_nanos, frame_count
		FROM sessions ORDER BY started_unix_nanos DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Device, &started, &ended, &s.Frames); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started).UTC()
		if ended.Valid {
			t := time.Unix(0, ended.Int64).UTC()
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Contacts returns the recorded contacts of a session in recording order.
func (db *DB) Contacts(session string) ([]RecordedContact, error) {
	rows, err := db.Query(`SELECT seq, frame_unix_nanos, contact_index,
			x, y, minor, major, orientation, normalized, stable, valid
		FROM contacts WHERE session_id = ? ORDER BY seq, rowid`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []RecordedContact
	for rows.Next() {
		var (
			rc    RecordedContact
			seq   int64
			at    int64
			index sql.NullInt64
			c     = &rc.Contact
		)
		if err := rows.Scan(&seq, &at, &index,
			&c.Mean.X, &c.Mean.Y, &c.Size.X, &c.Size.Y, &c.Orientation,
			&c.Normalized, &c.Stable, &c.Valid,
		); err != nil {
			return nil, err
		}
		rc.Seq = uint64(seq)
		rc.Time = time.Unix(0, at).UTC()
		if index.Valid {
			c.Index = touch.IndexOf(int(index.Int64))
		}
		contacts = append(contacts, rc)
	}
	return contacts, rows.Err()
}
