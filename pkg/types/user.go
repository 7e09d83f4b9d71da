package types

import (
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
)

// User is a terminal operator stored in the user collection.
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	Name         string         `json:"name"`
	Email        string         `json:"email,omitempty"`
	Role         enums.UserRole `json:"role"`
	PasswordHash string         `json:"passwordHash"`
	CreatedAt    time.Time      `json:"createdAt"`
}
