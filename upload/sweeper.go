package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper deletes spool files that outlived MaxAge, e.g. after a crash
// between spooling and release.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	log    *logrus.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewSweeper(dir string, maxAge time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		dir:    dir,
		maxAge: maxAge,
		log:    log,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules Sweep on a cron spec such as "@every 10m".
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule sweeper: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read spool dir: %w", err)
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), spoolExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.WithFields(logrus.Fields{"file": e.Name(), "error": err.Error()}).Warn("remove stale upload")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Sweeper) run() {
	n, err := s.Sweep()
	if err != nil {
		s.log.WithField("error", err.Error()).Error("sweep spool dir")
		return
	}
	if n > 0 {
		s.log.WithField("removed", n).Info("removed stale uploads")
	}
}
