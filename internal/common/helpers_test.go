package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPeerID = "12D3KooWEyoppNCUx8Yx66oV9fJnriXwCcXwDDUA2kj6vnc6iDEp"

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", ShellQuote(""))
	assert.Equal(t, "/var/blockchain", ShellQuote("/var/blockchain"))
	assert.Equal(t, "coldstack/privatechain:v1", ShellQuote("coldstack/privatechain:v1"))
	assert.Equal(t, "'Coldstack Validator staging'", ShellQuote("Coldstack Validator staging"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
	assert.Equal(t, "'$(rm -rf /)'", ShellQuote("$(rm -rf /)"))
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "docker run --name 'a b'", ShellJoin([]string{"docker", "run", "--name", "a b"}))
}

func TestDecodeStorageUint(t *testing.T) {
	n, err := DecodeStorageUint("0x65000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(101), n)

	n, err = DecodeStorageUint("0x0001000000000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(256), n)

	_, err = DecodeStorageUint("0x6500")
	require.Error(t, err)

	_, err = DecodeStorageUint("0xzz")
	require.Error(t, err)
}

func TestBootnodeAddr(t *testing.T) {
	addr, err := BootnodeAddr("10.0.0.1", 30333, testPeerID)
	require.NoError(t, err)
	assert.Equal(t, "/ip4/10.0.0.1/tcp/30333/p2p/"+testPeerID, addr)

	addr, err = BootnodeAddr("boot.example.org", 30333, testPeerID)
	require.NoError(t, err)
	assert.Equal(t, "/dns4/boot.example.org/tcp/30333/p2p/"+testPeerID, addr)

	_, err = BootnodeAddr("10.0.0.1", 30333, "not-a-peer-id")
	require.Error(t, err)
}

func TestInitialBalance(t *testing.T) {
	assert.Equal(t, uint64(1152921504606846976), InitialBalance)
}
