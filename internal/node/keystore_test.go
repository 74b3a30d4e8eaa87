package node

import (
	"context"
	"strings"
	"testing"

	"github.com/coldstack/privatechain-deploy/internal/remote/remotetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"

const testSecretDir = "/tmp/chainctl-0011223344"

func testKeystore(rec *remotetest.Recorder) *Keystore {
	ks := NewKeystore(rec, Container{Image: "coldstack/privatechain:v1", DataDir: "/var/blockchain"}, 1000)
	ks.secretDir = func() (string, error) { return testSecretDir, nil }
	return ks
}

func TestInsertKey_CopyUseDelete(t *testing.T) {
	rec := &remotetest.Recorder{}
	ks := testKeystore(rec)

	require.NoError(t, ks.InsertKey(context.Background(), "10.0.0.1", "/chainspec/staging.json", KeyTypeGrandpa, testMnemonic))

	calls := rec.Calls()
	require.Len(t, calls, 4)

	assert.Equal(t, "mkdir -m 0700 "+testSecretDir, calls[0].Script)
	assert.False(t, calls[0].Elevated)

	assert.True(t, calls[1].IsUpload())
	assert.Equal(t, testSecretDir+"/key_gran", calls[1].Path)
	assert.Equal(t, testMnemonic, string(calls[1].Data))

	assert.True(t, calls[2].Elevated)
	assert.Contains(t, calls[2].Script, "chown -h 1000:1000 "+testSecretDir+"/key_gran")
	assert.Contains(t, calls[2].Script, "key insert --chain /chainspec/staging.json --key-type gran --scheme Ed25519 --suri /keys/suri")
	assert.Contains(t, calls[2].Script, "-v "+testSecretDir+"/key_gran:/keys/suri:ro")
	assert.NotContains(t, calls[2].Script, testMnemonic)

	assert.Equal(t, "rm -rf "+testSecretDir, calls[3].Script)
	assert.True(t, calls[3].Elevated)
}

func TestInsertKey_DeletesEvenWhenInsertFails(t *testing.T) {
	rec := &remotetest.Recorder{FailOn: func(c remotetest.Call) error {
		if strings.Contains(c.Script, "key insert") {
			return remotetest.CommandFailure(c.Host, 1)
		}
		return nil
	}}
	ks := testKeystore(rec)

	err := ks.InsertKey(context.Background(), "10.0.0.1", "/chainspec/staging.json", KeyTypeAura, testMnemonic)
	require.Error(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "rm -rf "+testSecretDir, calls[3].Script)
}

func TestInsertKey_ReportsBothFailures(t *testing.T) {
	rec := &remotetest.Recorder{FailOn: func(c remotetest.Call) error {
		if strings.HasPrefix(c.Script, "chown") || strings.HasPrefix(c.Script, "rm -rf") {
			return remotetest.CommandFailure(c.Host, 2)
		}
		return nil
	}}
	ks := testKeystore(rec)

	err := ks.InsertKey(context.Background(), "10.0.0.1", "/chainspec/staging.json", KeyTypeAura, testMnemonic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert aura key")
	assert.Contains(t, err.Error(), "failed to remove secret directory")
}

func TestInsertKey_UploadFailureStillCleansUp(t *testing.T) {
	rec := &remotetest.Recorder{FailOn: func(c remotetest.Call) error {
		if c.IsUpload() {
			return remotetest.CommandFailure(c.Host, 1)
		}
		return nil
	}}
	ks := testKeystore(rec)

	err := ks.InsertKey(context.Background(), "10.0.0.1", "/chainspec/staging.json", KeyTypeAura, testMnemonic)
	require.Error(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "rm -rf "+testSecretDir, calls[2].Script)
	assert.Empty(t, rec.ScriptsContaining("key insert"))
}

func TestInsertKey_ExistingDirectoryAborts(t *testing.T) {
	rec := &remotetest.Recorder{FailOn: func(c remotetest.Call) error {
		if strings.HasPrefix(c.Script, "mkdir") {
			return remotetest.CommandFailure(c.Host, 1)
		}
		return nil
	}}
	ks := testKeystore(rec)

	err := ks.InsertKey(context.Background(), "10.0.0.1", "/chainspec/staging.json", KeyTypeAura, testMnemonic)
	require.Error(t, err)

	// nothing uploaded, and a path owned by someone else is never removed
	assert.Len(t, rec.Calls(), 1)
}

func TestRandomSecretDir(t *testing.T) {
	a, err := randomSecretDir()
	require.NoError(t, err)
	b, err := randomSecretDir()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "/tmp/chainctl-"))
	assert.Len(t, a, len("/tmp/chainctl-")+24)
	assert.NotEqual(t, a, b)
}

func TestInstallNodeKey(t *testing.T) {
	rec := &remotetest.Recorder{}
	ks := testKeystore(rec)

	path, err := ks.InstallNodeKey(context.Background(), "10.0.0.1", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "/data/node-key", path)

	calls := rec.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, testSecretDir+"/node_key", calls[1].Path)
	assert.Equal(t, "deadbeef", string(calls[1].Data))
	assert.Equal(t, "install -m 0600 -o 1000 -g 1000 "+testSecretDir+"/node_key /var/blockchain/node-key", calls[2].Script)
	assert.NotContains(t, calls[2].Script, "deadbeef")
	assert.Equal(t, "rm -rf "+testSecretDir, calls[3].Script)
}

func TestKeyTypeScheme(t *testing.T) {
	assert.Equal(t, "Sr25519", KeyTypeAura.Scheme())
	assert.Equal(t, "Ed25519", KeyTypeGrandpa.Scheme())
}
