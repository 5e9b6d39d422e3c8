package models

// ProviderAccount is the identity-provider view of a user, extracted from
// the credential returned by a successful provider call.
type ProviderAccount struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}
