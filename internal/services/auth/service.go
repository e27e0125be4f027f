package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service issues anonymous device-bound tokens. A client may bring its own
// stable device id; otherwise one is generated and returned inside the
// token subject so the client can persist it.
type Service struct {
	jwt *JWTManager
	now func() time.Time
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{
		jwt: jwtManager,
		now: time.Now,
	}
}

func (s *Service) AnonymousSession(_ context.Context, deviceID string) (AuthResult, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(deviceID, true)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:   accessToken,
		AccessExpires: accessExpires,
		ActorID:       deviceID,
	}, nil
}

func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		ActorID:   claims.ActorID,
		Anonymous: claims.Anonymous,
	}, nil
}
