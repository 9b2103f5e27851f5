package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/persistence"
)

// CredentialRepository handles credential-related file operations.
type CredentialRepository struct {
	root string
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(root string) *CredentialRepository {
	return &CredentialRepository{root: root}
}

// GetByIDAndOwner retrieves a credential scoped to its owner. A credential
// belonging to a different owner reads as not found.
func (cr *CredentialRepository) GetByIDAndOwner(_ context.Context, id, ownerID string) (*models.Credential, error) {
	filePath := filepath.Clean(path.Join(cr.root, "credentials", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrCredentialNotFound
		}

		return nil, fmt.Errorf("failed to fetch credential %s: %w", id, err)
	}

	var credential models.Credential

	err = json.Unmarshal(body, &credential)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential %s: %w", id, err)
	}

	if credential.OwnerID != ownerID {
		return nil, persistence.ErrCredentialNotFound
	}

	return &credential, nil
}

// Save writes a credential to the file system.
func (cr *CredentialRepository) Save(_ context.Context, credential *models.Credential) error {
	err := os.MkdirAll(path.Join(cr.root, "credentials"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential %s: %w", credential.ID, err)
	}

	filePath := path.Join(cr.root, "credentials", credential.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// Delete removes a credential, refusing to cross owner boundaries.
func (cr *CredentialRepository) Delete(ctx context.Context, id, ownerID string) error {
	_, err := cr.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if persistence.IsCredentialNotFound(err) {
			return nil
		}

		return err
	}

	filePath := path.Join(cr.root, "credentials", id+".json")

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential %s: %w", id, err)
	}

	return nil
}
