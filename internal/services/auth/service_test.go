package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAnonymousSessionGeneratesDeviceID(t *testing.T) {
	svc := NewService(NewJWTManager("test-secret", time.Hour))

	res, err := svc.AnonymousSession(context.Background(), "")
	if err != nil {
		t.Fatalf("anonymous session: %v", err)
	}
	if res.ActorID == "" || res.AccessToken == "" {
		t.Fatalf("expected generated actor id and token, got %+v", res)
	}

	identity, err := svc.ValidateAccessToken(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if identity.ActorID != res.ActorID || !identity.Anonymous {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAnonymousSessionKeepsProvidedDeviceID(t *testing.T) {
	svc := NewService(NewJWTManager("test-secret", time.Hour))

	res, err := svc.AnonymousSession(context.Background(), "device-123")
	if err != nil {
		t.Fatalf("anonymous session: %v", err)
	}
	if res.ActorID != "device-123" {
		t.Fatalf("expected provided device id, got %s", res.ActorID)
	}
}

func TestValidateAccessTokenRejectsGarbageAndExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	svc := NewService(manager)
	ctx := context.Background()

	if _, err := svc.ValidateAccessToken(ctx, "not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for garbage, got %v", err)
	}
	if _, err := svc.ValidateAccessToken(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := manager.GenerateAccessToken("device-1", true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	manager.now = time.Now

	if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret-a", time.Hour).GenerateAccessToken("device-1", true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc := NewService(NewJWTManager("secret-b", time.Hour))
	if _, err := svc.ValidateAccessToken(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for wrong secret, got %v", err)
	}
}
