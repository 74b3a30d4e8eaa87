package crypto

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// mnemonicEntropyBits gives a 12 word phrase.
const mnemonicEntropyBits = 128

// NewMnemonic generates a fresh BIP-39 English mnemonic
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer clear(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to create mnemonic: %w", err)
	}
	return mnemonic, nil
}
