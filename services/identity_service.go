package services

import (
	"errors"

	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity lookups for the booking core. The core never reaches into
// ambient request state; handlers resolve the acting user from their
// token and services consult these helpers for roles and parent links.

func GetUser(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsManagedStudent reports whether the student's bookings must pass
// the parent approval gate.
func IsManagedStudent(db *gorm.DB, studentID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.ParentChildLink{}).
		Where("student_id = ? AND managed_billing = ?", studentID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LinkedParentIDs returns every parent linked to the student.
func LinkedParentIDs(db *gorm.DB, studentID uuid.UUID) ([]uuid.UUID, error) {
	var parentIDs []uuid.UUID
	err := db.Model(&models.ParentChildLink{}).
		Where("student_id = ?", studentID).
		Pluck("parent_id", &parentIDs).Error
	if err != nil {
		return nil, err
	}
	return parentIDs, nil
}

// IsLinkedParent reports whether parentID manages this student.
func IsLinkedParent(db *gorm.DB, parentID, studentID uuid.UUID) (bool, error) {
	var link models.ParentChildLink
	err := db.First(&link, "parent_id = ? AND student_id = ?", parentID, studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
