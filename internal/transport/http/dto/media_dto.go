package dto

type PhotoPresignRequest struct {
	FileName string `json:"file_name,omitempty"`
}

type PhotoPresignResponse struct {
	UploadURL    string `json:"upload_url"`
	PhotoURL     string `json:"photo_url"`
	ExpiresInSec int64  `json:"expires_in_sec"`
}
