package jobs

import (
	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/services"
)

// SweepElapsedSessions settles sessions whose scheduled window has
// long passed. The core itself has no timers; this cron sweep is the
// external supervisor that invokes the settlement check on demand.
func SweepElapsedSessions() {
	services.SettleElapsedSessions(database.DB)
}
