package jobs

import (
	"log"
	"time"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
)

// RetryMeetingLinks re-attempts provisioning for sessions that failed
// or were left pending after the initial attempt. Only upcoming,
// unsettled sessions are worth a link.
func RetryMeetingLinks() {
	log.Println("Running job: RetryMeetingLinks...")

	staleBefore := time.Now().Add(-2 * time.Minute)

	var sessions []models.Session
	err := database.DB.
		Where("settled_at IS NULL AND scheduled_end_at > ?", time.Now()).
		Where("provisioning_status = ? OR (provisioning_status = ? AND created_at < ?)",
			models.ProvisioningFailed, models.ProvisioningPending, staleBefore).
		Find(&sessions).Error
	if err != nil {
		log.Printf("Error finding sessions needing provisioning: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	for _, session := range sessions {
		go services.ProvisionMeetingLink(database.DB, session.ID)
	}
	log.Printf("Queued provisioning retry for %d session(s).", len(sessions))
}
