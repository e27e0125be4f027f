package dto

type AnonymousAuthRequest struct {
	DeviceID string `json:"device_id,omitempty"`
}

type AuthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresInSec int64  `json:"expires_in_sec"`
	ActorID      string `json:"actor_id"`
}
