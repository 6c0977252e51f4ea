// FilePath: server/hub/internal/tracking/tracking.hours.go
package tracking

import (
	"context"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/timezone"
	nuts "github.com/vaudience/go-nuts"
)

// RunAccrual is the hours-accrual tick: for every currently-online session
// it recomputes elapsed online hours against the local calendar day and
// persists the delta. Offline sessions are left untouched; their accrued
// hours persist unchanged until the vehicle reconnects. Single-flight: an
// overlapping invocation no-ops.
func (s *Service) RunAccrual(ctx context.Context) error {
	if !s.accrualBusy.CompareAndSwap(false, true) {
		nuts.L.Infof("[AccrualTicker] Run already in progress, skipping")
		return nil
	}
	defer s.accrualBusy.Store(false)

	sessions, err := s.sessions.ListCurrent(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	updated := 0
	for _, session := range sessions {
		if !session.IsOnline {
			continue
		}
		vehicleID := session.VehicleID
		if _, err := s.mutateSession(ctx, vehicleID, now, func(live *models.LiveSession) error {
			s.accrue(live, now)
			return nil
		}); err != nil {
			nuts.L.Warnf("[AccrualTicker] Skipping vehicle %s: %v", vehicleID, err)
			continue
		}
		updated++
	}

	nuts.L.Debugf("[AccrualTicker] Accrued hours for %d of %d sessions", updated, len(sessions))
	return nil
}

// accrue adds the elapsed span since the last accrual to the session's
// compliance hours, capped at the daily target. A session that was created
// or rolled over at this very instant has nothing to accrue yet (the
// rollover already reset the accrual anchor), which also implements the
// skip-accrual-on-rollover tick.
func (s *Service) accrue(session *models.LiveSession, now time.Time) {
	delta := timezone.ElapsedHours(session.Hours.LastAccrual, now)
	if delta == 0 {
		return
	}

	hour := now.In(s.resolver.ForSession(session)).Hour()
	session.Bucket(hour).OnlineMinutes += delta * 60

	accrued := session.Hours.AccruedHours + delta
	if accrued > session.Hours.TargetHours {
		accrued = session.Hours.TargetHours
	}
	session.Hours.AccruedHours = accrued
	if accrued >= session.Hours.TargetHours {
		session.Hours.Status = models.ComplianceCompliant
	} else {
		session.Hours.Status = models.ComplianceNonCompliant
	}
	session.Hours.LastAccrual = now
}
