package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"identity-service/internal/auth"
	"identity-service/internal/domain"
	"identity-service/internal/identity"
	"identity-service/internal/registry"
	"identity-service/internal/repository"
)

var (
	// ErrValidation indicates malformed or missing request input.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentityNotFound indicates the user exists but has no issued identity.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Registration is the one-time signup result. PrivateKey appears here and
// nowhere else: it is never persisted, logged or published.
type Registration struct {
	ID         int64
	Username   string
	Email      string
	IsActive   bool
	DID        string
	PublicKey  string
	PrivateKey string
}

// IdentityInfo is the public view of a user's issued identity.
type IdentityInfo struct {
	Username  string
	DID       string
	PublicKey string
}

// IdentityService orchestrates signup, login and signature verification.
type IdentityService interface {
	Signup(ctx context.Context, username, email, password string) (*Registration, error)
	Login(ctx context.Context, username, password string) (string, error)
	GetIdentity(ctx context.Context, username string) (*IdentityInfo, error)
	VerifySignature(ctx context.Context, username, message, signatureB64 string) (bool, error)
}

type identityService struct {
	users      repository.UserRepository
	identities repository.IdentityRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenService
	publisher  registry.Publisher
	publishTo  registry.PublishOptions
	logger     *logrus.Logger
}

// NewIdentityService wires the orchestrator. publisher may be nil, in which
// case DID documents are not published anywhere.
func NewIdentityService(
	users repository.UserRepository,
	identities repository.IdentityRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	publisher registry.Publisher,
	publishTo registry.PublishOptions,
	logger *logrus.Logger,
) IdentityService {
	if logger == nil {
		logger = logrus.New()
	}
	return &identityService{
		users:      users,
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		publisher:  publisher,
		publishTo:  publishTo,
		logger:     logger,
	}
}

func (s *identityService) Signup(ctx context.Context, username, email, password string) (*Registration, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	// friendly pre-check; the unique constraint below is authoritative
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	did := identity.NewDID(username)
	privateKey, publicKey, err := identity.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate identity keys: %w", err)
	}

	ident := &domain.Identity{
		UserID:    user.ID,
		DID:       did,
		PublicKey: publicKey,
	}
	if _, err := s.identities.Create(ctx, ident); err != nil {
		return nil, err
	}

	s.logger.Infof("issued DID %s for user %s", did, username)
	s.publishDocument(ctx, did, username, publicKey)

	return &Registration{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		IsActive:   user.IsActive,
		DID:        did,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}, nil
}

// publishDocument pushes the public DID document to the configured registry.
// Best effort: a publish failure never fails the signup.
func (s *identityService) publishDocument(ctx context.Context, did, username, publicKey string) {
	if s.publisher == nil {
		return
	}
	doc := registry.DIDDocument{
		DID:       did,
		Username:  username,
		PublicKey: publicKey,
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	location, err := s.publisher.Publish(ctx, doc, s.publishTo)
	if err != nil {
		s.logger.Warnf("publish did document %s: %v", did, err)
		return
	}
	s.logger.Infof("published did document to %s", location)
}

func (s *identityService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Username)
}

func (s *identityService) GetIdentity(ctx context.Context, username string) (*IdentityInfo, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ident, err := s.identities.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return &IdentityInfo{
		Username:  user.Username,
		DID:       ident.DID,
		PublicKey: ident.PublicKey,
	}, nil
}

func (s *identityService) VerifySignature(ctx context.Context, username, message, signatureB64 string) (bool, error) {
	ident, err := s.identities.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	return identity.VerifySignature(ident.PublicKey, message, signatureB64)
}
