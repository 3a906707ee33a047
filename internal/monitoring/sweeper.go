// Package monitoring hosts the background reconciliation pass that keeps
// the poster directory consistent with the movie table. Poster writes and
// record writes are not atomic, so a crash between them can leak a file;
// the sweeper converges that drift.
package monitoring

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes poster files no movie record references.
type Sweeper struct {
	db       *sql.DB
	dir      string
	minAge   time.Duration
	schedule cron.Schedule
	done     chan bool
}

// NewSweeper creates a sweeper for the given uploads directory. The
// schedule is a standard cron expression (descriptors like @hourly are
// accepted). Files younger than minAge are never touched, so uploads
// racing an in-flight create are safe.
func NewSweeper(db *sql.DB, dir string, minAge time.Duration, scheduleExpr string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		db:       db,
		dir:      dir,
		minAge:   minAge,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweep loop.
func (s *Sweeper) Run() {
	log.Info().Str("dir", s.dir).Msg("Starting orphan poster sweeper")
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping orphan poster sweeper")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	s.done <- true
}

func (s *Sweeper) sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("Sweeper: failed to read uploads directory")
		return
	}

	cutoff := time.Now().Add(-s.minAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		referenced, err := s.isReferenced(entry.Name())
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("Sweeper: reference check failed")
			continue
		}
		if referenced {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("file", entry.Name()).Msg("Sweeper: failed to remove orphan poster")
			continue
		}
		log.Info().Str("file", entry.Name()).Msg("Sweeper: removed orphan poster")
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Sweeper: pass complete")
	}
}

func (s *Sweeper) isReferenced(name string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(1) FROM movies WHERE poster = ?", "uploads/"+name).Scan(&n)
	return n > 0, err
}
