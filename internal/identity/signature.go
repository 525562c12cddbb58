package identity

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrMalformedKey indicates the stored public key could not be decoded.
	ErrMalformedKey = errors.New("malformed public key")
	// ErrMalformedSignature indicates the signature is not valid base64.
	ErrMalformedSignature = errors.New("malformed signature")
)

// VerifySignature checks a detached signature over message against a PEM
// encoded RSA public key. The signature is base64 encoded and covers the
// UTF-8 bytes of message with PKCS#1 v1.5 padding over a SHA-256 digest.
// A signature that simply does not match yields (false, nil); only decode
// failures are errors.
func VerifySignature(publicKeyPEM, message, signatureB64 string) (bool, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return false, ErrMalformedKey
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return false, fmt.Errorf("%w: not an RSA key", ErrMalformedKey)
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	digest := sha256.Sum256([]byte(message))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}
