package registry

import (
	"context"
	"time"
)

// DIDDocument is the public record published for a freshly issued identity.
// It never carries private key material.
type DIDDocument struct {
	DID       string `json:"did"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
	IssuedAt  string `json:"issued_at"`
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PublishOptions conveys the destination for published documents.
type PublishOptions struct {
	Bucket    string
	KeyPrefix string
}

// Publisher pushes DID documents to remote object storage so other parties
// can fetch public keys without talking to this service.
type Publisher interface {
	Publish(ctx context.Context, doc DIDDocument, opts PublishOptions) (string, error)
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
