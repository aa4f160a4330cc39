package auth

import (
	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Actor is the authenticated caller as seen by domain services.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) IsFarmer() bool {
	return a.Role == enums.UserRoleFarmer
}
