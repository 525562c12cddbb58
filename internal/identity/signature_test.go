package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"
)

func signMessage(t *testing.T, privPEM, message string) string {
	t.Helper()

	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		t.Fatal("private key PEM did not decode")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		t.Fatalf("parse private key: %v", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		t.Fatalf("expected RSA private key, got %T", parsed)
	}

	digest := sha256.Sum256([]byte(message))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	t.Parallel()

	privPEM, pubPEM, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}

	sig := signMessage(t, privPEM, "hello world")

	ok, err := VerifySignature(pubPEM, "hello world", sig)
	if err != nil {
		t.Fatalf("VerifySignature error: %v", err)
	}
	if !ok {
		t.Error("signature over the original message should verify")
	}

	ok, err = VerifySignature(pubPEM, "hello world!", sig)
	if err != nil {
		t.Fatalf("VerifySignature error: %v", err)
	}
	if ok {
		t.Error("signature should not verify against a different message")
	}
}

func TestVerifySignature_WrongKey(t *testing.T) {
	t.Parallel()

	privPEM, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	_, otherPub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}

	sig := signMessage(t, privPEM, "hello world")
	ok, err := VerifySignature(otherPub, "hello world", sig)
	if err != nil {
		t.Fatalf("VerifySignature error: %v", err)
	}
	if ok {
		t.Error("signature should not verify against an unrelated public key")
	}
}

func TestVerifySignature_Deterministic(t *testing.T) {
	t.Parallel()

	privPEM, pubPEM, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	sig := signMessage(t, privPEM, "stable input")

	for i := 0; i < 5; i++ {
		ok, err := VerifySignature(pubPEM, "stable input", sig)
		if err != nil || !ok {
			t.Fatalf("call %d: got (%v, %v), want (true, nil)", i, ok, err)
		}
	}
}

func TestVerifySignature_MalformedInputs(t *testing.T) {
	t.Parallel()

	_, pubPEM, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}

	if _, err := VerifySignature("not a pem block", "msg", "c2ln"); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("bad key: error = %v, want ErrMalformedKey", err)
	}

	if _, err := VerifySignature(pubPEM, "msg", "%%% not base64 %%%"); !errors.Is(err, ErrMalformedSignature) {
		t.Errorf("bad signature encoding: error = %v, want ErrMalformedSignature", err)
	}
}
