package network

import (
	"context"
	"errors"

	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"
)

const (
	devPhrase   = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"
	testPeerID  = "12D3KooWEyoppNCUx8Yx66oV9fJnriXwCcXwDDUA2kj6vnc6iDEp"
	testNodeKey = "2a0c1b5e4c8f2d7e9a3b6c5d4e8f7a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f"
)

type fakeIdentity struct {
	identity node.Identity
	err      error
}

func (f fakeIdentity) GenerateIdentity(context.Context) (node.Identity, error) {
	return f.identity, f.err
}

var errBoom = errors.New("boom")

func testSecrets() *model.Secrets {
	return &model.Secrets{
		Authorities: []string{devPhrase},
		Sudo:        "legal winner thank year wave sausage worth useful legal winner thank yellow",
		Admin:       "letter advice cage absurd amount doctor acoustic avoid letter advice cage above",
		NodeKey:     testNodeKey,
		PeerID:      testPeerID,
	}
}
