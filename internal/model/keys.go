package model

// Keypair is a public identity derived from a mnemonic.
// It is recomputed when needed and never written to disk.
type Keypair struct {
	Address   string `json:"address"`
	PublicKey []byte `json:"publicKey"`
}

// AccountKeys holds both identities derived from one mnemonic:
// Sr25519 is used for block production (aura), Ed25519 for finality voting (grandpa).
type AccountKeys struct {
	Sr25519 Keypair `json:"sr25519"`
	Ed25519 Keypair `json:"ed25519"`
}
