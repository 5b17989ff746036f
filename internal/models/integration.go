package models

import "time"

type IntegrationStatus string

const (
	IntegrationActive  IntegrationStatus = "active"
	IntegrationExpired IntegrationStatus = "expired"
)

// Integration is a connected platform account. AccessToken holds the KMS
// ciphertext and is never returned to API callers.
type Integration struct {
	IntegrationID string            `firestore:"integrationId" json:"integrationId"`
	UID           string            `firestore:"uid" json:"-"`
	Platform      Platform          `firestore:"platform" json:"platform"`
	AccountRef    string            `firestore:"accountRef" json:"accountRef"`
	AccountName   string            `firestore:"accountName,omitempty" json:"accountName,omitempty"`
	AccessToken   string            `firestore:"accessToken" json:"-"`
	Status        IntegrationStatus `firestore:"status" json:"status"`
	LastFetchedAt *time.Time        `firestore:"lastFetchedAt,omitempty" json:"lastFetchedAt,omitempty"`
	CreatedAt     time.Time         `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `firestore:"updatedAt" json:"updatedAt"`
}
