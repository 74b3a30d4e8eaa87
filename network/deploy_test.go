package network

import (
	"context"
	"strings"
	"testing"

	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"
	"github.com/coldstack/privatechain-deploy/internal/remote"
	"github.com/coldstack/privatechain-deploy/internal/remote/remotetest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvisioner(rec *remotetest.Recorder) *Provisioner {
	container := node.Container{Image: "coldstack/privatechain:v1", DataDir: "/var/blockchain"}
	return NewProvisioner(rec, container, 1000, zerolog.Nop())
}

func testDeployOptions() DeployOptions {
	return DeployOptions{
		Env:        model.EnvStaging,
		Secrets:    testSecrets(),
		BootAddr:   "10.0.0.1",
		NamePrefix: "Coldstack",
		P2PPort:    30333,
		RPCPort:    9933,
		WSPort:     9944,
		RuntimeUID: 1000,
	}
}

func runCommand(t *testing.T, calls []remotetest.Call) string {
	t.Helper()
	for _, c := range calls {
		if strings.HasPrefix(c.Script, "docker run -d") {
			return c.Script
		}
	}
	t.Fatal("no docker run -d call")
	return ""
}

func TestPlanTargets(t *testing.T) {
	targets, err := PlanTargets([]string{"10.0.0.1", "10.0.0.2"}, []string{"10.0.0.3"})
	require.NoError(t, err)

	assert.Equal(t, []model.Target{
		{Host: "10.0.0.1", Role: model.RoleBootValidator},
		{Host: "10.0.0.2", Role: model.RoleValidator},
		{Host: "10.0.0.3", Role: model.RoleAPI},
	}, targets)

	_, err = PlanTargets(nil, []string{"10.0.0.3"})
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = PlanTargets([]string{""}, nil)
	assert.Error(t, err)
}

func TestDeploy_ThreeHosts(t *testing.T) {
	rec := &remotetest.Recorder{}
	targets, err := PlanTargets([]string{"10.0.0.1", "10.0.0.2"}, []string{"10.0.0.3"})
	require.NoError(t, err)

	require.NoError(t, testProvisioner(rec).Deploy(context.Background(), targets, testDeployOptions()))

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, rec.Hosts())

	bootnode := "--bootnodes /ip4/10.0.0.1/tcp/30333/p2p/" + testPeerID

	boot := runCommand(t, rec.HostCalls("10.0.0.1"))
	assert.Contains(t, boot, "--validator --name 'Coldstack Validator staging'")
	assert.Contains(t, boot, "--chain /chainspec/staging.json")
	assert.Contains(t, boot, "--node-key-file /data/node-key")
	assert.Contains(t, boot, "-p 30333:30333")
	assert.NotContains(t, boot, "--bootnodes")
	assert.NotContains(t, boot, "--rpc-external")

	validator := runCommand(t, rec.HostCalls("10.0.0.2"))
	assert.Contains(t, validator, "--validator")
	assert.Contains(t, validator, bootnode)
	assert.NotContains(t, validator, "--node-key")

	api := runCommand(t, rec.HostCalls("10.0.0.3"))
	assert.NotContains(t, api, "--validator")
	assert.Contains(t, api, "--name 'Coldstack Public staging'")
	assert.Contains(t, api, "-p 30333:30333 -p 9933:9933 -p 9944:9944")
	assert.Contains(t, api, "--ws-port 9944 --rpc-external --ws-external --rpc-port 9933 --rpc-cors all")
	assert.Contains(t, api, bootnode)

	// API nodes get no keys
	for _, c := range rec.HostCalls("10.0.0.3") {
		assert.False(t, c.IsUpload())
		assert.NotContains(t, c.Script, "key insert")
	}
}

func TestDeploy_ValidatorSteps(t *testing.T) {
	rec := &remotetest.Recorder{}
	targets := []model.Target{{Host: "10.0.0.1", Role: model.RoleBootValidator}}

	require.NoError(t, testProvisioner(rec).Deploy(context.Background(), targets, testDeployOptions()))

	calls := rec.Calls()
	// preflight, storage, 3 x (mkdir, upload, use, rm), run
	require.Len(t, calls, 15)

	assert.Contains(t, calls[0].Script, "docker ps -q --filter ancestor=coldstack/privatechain:v1")
	assert.False(t, calls[0].Elevated)

	assert.Equal(t, "mkdir -p /var/blockchain\nchown -R 1000:1000 /var/blockchain", calls[1].Script)
	assert.True(t, calls[1].Elevated)

	assertSecretUpload(t, calls[2:6], "key_aura", devPhrase)
	assert.Contains(t, calls[4].Script, "--key-type aura --scheme Sr25519")
	assertSecretUpload(t, calls[6:10], "key_gran", devPhrase)
	assert.Contains(t, calls[8].Script, "--key-type gran --scheme Ed25519")
	assertSecretUpload(t, calls[10:14], "node_key", testNodeKey)
	assert.Contains(t, calls[12].Script, "/var/blockchain/node-key")

	// every secret gets its own directory
	assert.NotEqual(t, calls[3].Path, calls[7].Path)

	assert.True(t, strings.HasPrefix(calls[14].Script, "docker run -d --restart unless-stopped"))
	assert.False(t, calls[14].Elevated)

	// secrets only travel as uploads
	for _, c := range calls {
		assert.NotContains(t, c.Script, devPhrase)
		assert.NotContains(t, c.Script, testNodeKey)
	}
}

// assertSecretUpload checks one mkdir, upload, use, rm sequence
func assertSecretUpload(t *testing.T, calls []remotetest.Call, name, data string) {
	t.Helper()
	require.Len(t, calls, 4)

	dir := strings.TrimPrefix(calls[0].Script, "mkdir -m 0700 ")
	assert.True(t, strings.HasPrefix(dir, "/tmp/chainctl-"), calls[0].Script)
	assert.False(t, calls[0].Elevated)

	assert.True(t, calls[1].IsUpload())
	assert.Equal(t, dir+"/"+name, calls[1].Path)
	assert.Equal(t, data, string(calls[1].Data))

	assert.True(t, calls[2].Elevated)
	assert.Contains(t, calls[2].Script, dir+"/"+name)

	assert.Equal(t, "rm -rf "+dir, calls[3].Script)
	assert.True(t, calls[3].Elevated)
}

func TestDeploy_StopsAtFirstFailure(t *testing.T) {
	rec := &remotetest.Recorder{
		FailOn: func(c remotetest.Call) error {
			if c.Host == "10.0.0.2" && strings.HasPrefix(c.Script, "docker run -d") {
				return remotetest.CommandFailure(c.Host, 125)
			}
			return nil
		},
	}
	targets, err := PlanTargets([]string{"10.0.0.1", "10.0.0.2"}, []string{"10.0.0.3"})
	require.NoError(t, err)

	err = testProvisioner(rec).Deploy(context.Background(), targets, testDeployOptions())
	require.Error(t, err)

	status, ok := remote.ExitStatus(err)
	require.True(t, ok)
	assert.Equal(t, 125, status)
	assert.Empty(t, rec.HostCalls("10.0.0.3"))
}

func TestDeploy_NodeAlreadyRunning(t *testing.T) {
	rec := &remotetest.Recorder{
		FailOn: func(c remotetest.Call) error {
			if strings.Contains(c.Script, "docker ps -q") {
				return remotetest.CommandFailure(c.Host, 3)
			}
			return nil
		},
	}
	targets := []model.Target{{Host: "10.0.0.1", Role: model.RoleBootValidator}}

	err := testProvisioner(rec).Deploy(context.Background(), targets, testDeployOptions())
	require.ErrorIs(t, err, ErrNodeRunning)
	assert.Len(t, rec.Calls(), 1)
}

func TestDeploy_KeyInsertFailureRemovesSecret(t *testing.T) {
	rec := &remotetest.Recorder{
		FailOn: func(c remotetest.Call) error {
			if strings.Contains(c.Script, "key insert") {
				return remotetest.CommandFailure(c.Host, 1)
			}
			return nil
		},
	}
	targets := []model.Target{{Host: "10.0.0.1", Role: model.RoleBootValidator}}

	err := testProvisioner(rec).Deploy(context.Background(), targets, testDeployOptions())
	require.Error(t, err)

	removed := rec.ScriptsContaining("rm -rf /tmp/chainctl-")
	assert.Len(t, removed, 1)
	assert.Empty(t, rec.ScriptsContaining("docker run -d"))
}

func TestDeploy_Validation(t *testing.T) {
	p := testProvisioner(&remotetest.Recorder{})
	ctx := context.Background()
	targets, err := PlanTargets([]string{"10.0.0.1", "10.0.0.2"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Deploy(ctx, nil, testDeployOptions()), ErrNoTargets)

	opts := testDeployOptions()
	opts.Env = "dev"
	assert.Error(t, p.Deploy(ctx, targets, opts))

	opts = testDeployOptions()
	opts.BootAddr = ""
	assert.Error(t, p.Deploy(ctx, targets, opts))

	misordered := []model.Target{
		{Host: "10.0.0.3", Role: model.RoleAPI},
		{Host: "10.0.0.1", Role: model.RoleValidator},
	}
	assert.Error(t, p.Deploy(ctx, misordered, testDeployOptions()))

	twoBoots := []model.Target{
		{Host: "10.0.0.1", Role: model.RoleBootValidator},
		{Host: "10.0.0.2", Role: model.RoleBootValidator},
	}
	assert.Error(t, p.Deploy(ctx, twoBoots, testDeployOptions()))
}

func TestDeploy_SingleBootNeedsNoBootAddr(t *testing.T) {
	rec := &remotetest.Recorder{}
	opts := testDeployOptions()
	opts.BootAddr = ""

	targets := []model.Target{{Host: "10.0.0.1", Role: model.RoleBootValidator}}
	require.NoError(t, testProvisioner(rec).Deploy(context.Background(), targets, opts))
}
