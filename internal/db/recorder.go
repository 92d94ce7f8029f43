package db

import (
	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// Recorder is a pipeline sink that writes every processed frame to one
// session.
type Recorder struct {
	db      *DB
	session string
}

// NewRecorder starts a new session for device and returns a sink recording
// into it.
func NewRecorder(db *DB, device string) (*Recorder, error) {
	id, err := db.StartSession(device)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("recording session %s for %s", id, device)
	return &Recorder{db: db, session: id}, nil
}

// Session returns the id of the session being recorded.
func (r *Recorder) Session() string { return r.session }

func (r *Recorder) Consume(out pipeline.Output) error {
	return r.db.RecordFrame(r.session, out.Seq, out.Time, out.Contacts)
}

// Close ends the session. The database stays open.
func (r *Recorder) Close() error {
	return r.db.EndSession(r.session)
}
