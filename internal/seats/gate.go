package seats

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

// IsActive is the activation gate: a pure read of the one flag this
// package maintains. An identity reaches protected functionality iff
// its IsActive flag is set. Unknown identities are simply inactive.
func (s *Service) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("is_active").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive, nil
}
