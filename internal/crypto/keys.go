package crypto

import (
	"fmt"

	"github.com/coldstack/privatechain-deploy/internal/model"

	"github.com/vedhavyas/go-subkey/v2"
	"github.com/vedhavyas/go-subkey/v2/ed25519"
	"github.com/vedhavyas/go-subkey/v2/sr25519"
)

// DeriveKeys derives the sr25519 and ed25519 identities of a mnemonic.
// ss58Format is the network prefix used to render addresses (42 for generic substrate).
func DeriveKeys(mnemonic string, ss58Format uint16) (*model.AccountKeys, error) {
	sr, err := deriveKeypair(sr25519.Scheme{}, mnemonic, ss58Format)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sr25519 keypair: %w", err)
	}

	ed, err := deriveKeypair(ed25519.Scheme{}, mnemonic, ss58Format)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ed25519 keypair: %w", err)
	}

	return &model.AccountKeys{Sr25519: sr, Ed25519: ed}, nil
}

func deriveKeypair(scheme subkey.Scheme, mnemonic string, ss58Format uint16) (model.Keypair, error) {
	kp, err := subkey.DeriveKeyPair(scheme, mnemonic)
	if err != nil {
		return model.Keypair{}, err
	}
	return model.Keypair{
		Address:   kp.SS58Address(ss58Format),
		PublicKey: kp.Public(),
	}, nil
}
