package handler

import "hostguard/internal/verification/models"

// HistoryResponse lists the caller's verification requests, newest first.
type HistoryResponse struct {
	Verifications []*models.VerificationRequest `json:"verifications"`
	Count         int                           `json:"count"`
}
