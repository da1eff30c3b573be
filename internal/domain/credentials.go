package domain

// CredentialKind selects how a session with the remote service is
// established.
type CredentialKind string

const (
	// CredentialServiceAccount authenticates with an account identifier
	// and private key material.
	CredentialServiceAccount CredentialKind = "service_account"
	// CredentialRefreshToken authenticates through the service's token
	// endpoint using a stored refresh token.
	CredentialRefreshToken CredentialKind = "refresh_token"
	// CredentialPersistent tells the service to use locally persisted
	// credentials from an earlier authentication.
	CredentialPersistent CredentialKind = "persistent"
)

// Credentials carries the material for one of the three strategies.
// Fields irrelevant to the selected kind are left empty.
type Credentials struct {
	Kind         CredentialKind
	Account      string
	PrivateKey   string
	RefreshToken string
}
