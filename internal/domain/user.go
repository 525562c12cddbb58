package domain

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
}

// Identity holds the decentralized identifier and public key issued to a
// user at signup. The matching private key is returned once and never stored.
type Identity struct {
	ID        int64
	UserID    int64
	DID       string
	PublicKey string
}
