package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// User is a marketplace account. Credentials live with the auth provider.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:user"`
	Phone     *string        `gorm:"column:phone"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
