package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

// CredentialRepository handles credential-related database operations.
// Every lookup is scoped by owner.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetByIDAndOwner retrieves a credential scoped to its owner. A credential
// belonging to a different owner reads as not found.
func (r *CredentialRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	query := `
		SELECT
			id
		  , owner_id
		  , name
		  , value
		  , created_at
		FROM credentials
		WHERE id = $1 AND owner_id = $2
	`

	var credential models.Credential

	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&credential.ID,
		&credential.OwnerID,
		&credential.Name,
		&credential.Value,
		&credential.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrCredentialNotFound
		}

		return nil, fmt.Errorf("failed to query credential %s: %w", id, err)
	}

	return &credential, nil
}

// Save upserts a credential.
func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (id, owner_id, name, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			value = EXCLUDED.value
	`, credential.ID, credential.OwnerID, credential.Name, credential.Value, credential.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credential %s: %w", credential.ID, err)
	}

	return nil
}

// Delete removes a credential, refusing to cross owner boundaries.
func (r *CredentialRepository) Delete(ctx context.Context, id, ownerID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete credential %s: %w", id, err)
	}

	return nil
}
