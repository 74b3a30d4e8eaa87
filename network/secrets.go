package network

import (
	"context"
	"fmt"

	"github.com/coldstack/privatechain-deploy/internal/crypto"
	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"
)

// GenerateSecrets creates a fresh secrets record: one mnemonic per authority,
// sudo and admin mnemonics, and the boot node identity from the node binary.
func GenerateSecrets(ctx context.Context, gen node.IdentityGenerator, authorities int) (*model.Secrets, error) {
	if authorities < 1 {
		return nil, ErrNoAuthorities
	}

	// Generate network identity first: it is the only step that can fail for external reasons
	identity, err := gen.GenerateIdentity(ctx)
	if err != nil {
		return nil, err
	}

	secrets := &model.Secrets{
		Authorities: make([]string, 0, authorities),
		NodeKey:     identity.NodeKey,
		PeerID:      identity.PeerID,
	}

	for i := 0; i < authorities; i++ {
		m, err := crypto.NewMnemonic()
		if err != nil {
			return nil, fmt.Errorf("failed to generate authority mnemonic: %w", err)
		}
		secrets.Authorities = append(secrets.Authorities, m)
	}

	if secrets.Sudo, err = crypto.NewMnemonic(); err != nil {
		return nil, fmt.Errorf("failed to generate sudo mnemonic: %w", err)
	}
	if secrets.Admin, err = crypto.NewMnemonic(); err != nil {
		return nil, fmt.Errorf("failed to generate admin mnemonic: %w", err)
	}

	return secrets, nil
}
