// Package credentials resolves user-owned secrets for credential-consuming
// executors. Decryption mechanics are out of the engine's scope and consumed
// as an opaque operation.
package credentials

import (
	"context"
	"fmt"

	"github.com/RachidJedata/GraphOps/pkg/persistence"
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// Decrypter turns a stored credential value into plaintext. Supplied by the
// host; the engine never sees key material.
type Decrypter func(ciphertext string) (string, error)

// PlaintextDecrypter passes values through unchanged. For development and
// tests only.
func PlaintextDecrypter(value string) (string, error) {
	return value, nil
}

// Store resolves credentials through the repository and decrypts them.
// It fails closed: a missing or foreign credential is a non-retriable error,
// never an empty value an executor could proceed unauthenticated with.
type Store struct {
	repository persistence.CredentialRepository
	decrypt    Decrypter
}

func NewStore(repository persistence.CredentialRepository, decrypt Decrypter) *Store {
	return &Store{
		repository: repository,
		decrypt:    decrypt,
	}
}

// Get implements protocol.CredentialResolver.
func (s *Store) Get(ctx context.Context, id, ownerID string) (string, error) {
	credential, err := s.repository.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if persistence.IsCredentialNotFound(err) {
			return "", protocol.NonRetriablef("credential %s not found for owner", id)
		}

		return "", fmt.Errorf("failed to resolve credential %s: %w", id, err)
	}

	plaintext, err := s.decrypt(credential.Value)
	if err != nil {
		return "", protocol.NonRetriablef("failed to decrypt credential %s: %v", id, err)
	}

	return plaintext, nil
}
