package utils

import (
	"math/rand"
	"time"

	"github.com/classroomtt/tutor_marketplace/models"
	"gorm.io/gorm"
)

const referenceCodeLength = 8
const letterBytes = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateUniqueBookingReference returns a short human-readable code
// for a new booking, unique across the bookings table. Ambiguous
// characters (0/O, 1/I/L) are excluded.
func GenerateUniqueBookingReference(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referenceCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := "BK-" + string(b)

		var booking models.Booking
		err := tx.Where("reference = ?", code).First(&booking).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
