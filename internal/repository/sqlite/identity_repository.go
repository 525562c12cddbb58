package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"identity-service/internal/domain"
	"identity-service/internal/repository"
)

const createIdentitiesTable = `
CREATE TABLE IF NOT EXISTS identities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
	did TEXT NOT NULL UNIQUE,
	public_key TEXT NOT NULL
);
`

type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) repository.IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createIdentitiesTable); err != nil {
		return fmt.Errorf("create identities table: %w", err)
	}
	return nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO identities (user_id, did, public_key)
VALUES (?, ?, ?)`,
		identity.UserID,
		identity.DID,
		identity.PublicKey,
	)
	if err != nil {
		if uniqueErr := mapIdentityUniqueError(err); uniqueErr != nil {
			return 0, uniqueErr
		}
		return 0, fmt.Errorf("insert identity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("identity last insert id: %w", err)
	}
	identity.ID = id
	return id, nil
}

func (r *IdentityRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, did, public_key
FROM identities
WHERE user_id = ?`,
		userID,
	)
	return scanIdentity(row)
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT i.id, i.user_id, i.did, i.public_key
FROM identities i
JOIN users u ON u.id = i.user_id
WHERE u.username = ?`,
		username,
	)
	return scanIdentity(row)
}

func mapIdentityUniqueError(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") {
		return nil
	}
	if strings.Contains(msg, "identities.did") {
		return repository.ErrDIDExists
	}
	if strings.Contains(msg, "identities.user_id") {
		return repository.ErrIdentityExists
	}
	return fmt.Errorf("identity unique constraint: %w", err)
}

func scanIdentity(row interface {
	Scan(dest ...any) error
}) (*domain.Identity, error) {
	var identity domain.Identity
	if err := row.Scan(
		&identity.ID,
		&identity.UserID,
		&identity.DID,
		&identity.PublicKey,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	return &identity, nil
}
