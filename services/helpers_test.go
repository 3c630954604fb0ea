package services

import (
	"testing"
	"time"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixtures struct {
	student models.User
	tutor   models.User
	parent  models.User
	subject models.Subject
}

func newTestEnv(t *testing.T) (*gorm.DB, fixtures) {
	t.Helper()
	db := database.ConnectTestDB()

	f := fixtures{
		student: createUser(t, db, "Keisha Ramlogan", models.RoleStudent),
		tutor:   createUser(t, db, "Andre Boodoo", models.RoleTutor),
		parent:  createUser(t, db, "Marcia Ramlogan", models.RoleParent),
		subject: createSubject(t, db, "CSEC Mathematics", 120),
	}
	return db, f
}

func createUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{
		FullName: name,
		Email:    uuid.NewString() + "@example.tt",
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createSubject(t *testing.T, db *gorm.DB, name string, hourlyRate float64) models.Subject {
	t.Helper()
	subject := models.Subject{Name: name + " " + uuid.NewString()[:8], HourlyRateTTD: hourlyRate}
	require.NoError(t, db.Create(&subject).Error)
	return subject
}

func linkParent(t *testing.T, db *gorm.DB, parentID, studentID uuid.UUID, managed bool) {
	t.Helper()
	link := models.ParentChildLink{
		ParentID:       parentID,
		StudentID:      studentID,
		ManagedBilling: managed,
	}
	require.NoError(t, db.Create(&link).Error)
}

// futureAt returns a whole-minute timestamp h hours from now.
func futureAt(h int) time.Time {
	return time.Now().Add(time.Duration(h) * time.Hour).Truncate(time.Minute)
}

func requestTestBooking(t *testing.T, db *gorm.DB, f fixtures, durationMinutes int) *models.Booking {
	t.Helper()
	start := futureAt(24)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	booking, err := RequestBooking(db, f.student.ID, f.tutor.ID, f.subject.ID, start, end, nil)
	require.NoError(t, err)
	return booking
}

func reloadBooking(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Booking {
	t.Helper()
	var booking models.Booking
	require.NoError(t, db.First(&booking, "id = ?", id).Error)
	return &booking
}

func reloadSession(t *testing.T, db *gorm.DB, bookingID uuid.UUID) *models.Session {
	t.Helper()
	var session models.Session
	require.NoError(t, db.First(&session, "booking_id = ?", bookingID).Error)
	return &session
}
