package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	StoreID   *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients. StoreID is
// set for vendor operators and absent for plain customer accounts.
type AccessTokenClaims struct {
	AccountID uuid.UUID  `json:"account_id"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}
