package node

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/coldstack/privatechain-deploy/internal/common"
	"github.com/coldstack/privatechain-deploy/internal/remote"

	"github.com/hashicorp/go-multierror"
)

// KeyType is a session key type understood by "key insert".
type KeyType string

const (
	KeyTypeAura    KeyType = "aura"
	KeyTypeGrandpa KeyType = "gran"
)

// SessionKeyTypes lists the keys a validator needs, in insertion order.
var SessionKeyTypes = []KeyType{KeyTypeAura, KeyTypeGrandpa}

// Scheme returns the signature scheme of the key type
func (k KeyType) Scheme() string {
	if k == KeyTypeGrandpa {
		return "Ed25519"
	}
	return "Sr25519"
}

const (
	secretMountPath = "/keys/suri"
	// NodeKeyFile is the boot node network key inside the data directory.
	NodeKeyFile = "node-key"
)

// Keystore seeds node secrets on remote hosts.
// Secrets travel as temporary files that are removed even when the step fails.
type Keystore struct {
	exec       remote.Executor
	container  Container
	runtimeUID int
	// secretDir names the private directory created for one secret file.
	secretDir func() (string, error)
}

// NewKeystore creates a Keystore writing into the container data directory
func NewKeystore(exec remote.Executor, container Container, runtimeUID int) *Keystore {
	return &Keystore{exec: exec, container: container, runtimeUID: runtimeUID, secretDir: randomSecretDir}
}

// randomSecretDir returns an unpredictable path under /tmp
func randomSecretDir() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret directory name: %w", err)
	}
	return "/tmp/chainctl-" + hex.EncodeToString(b), nil
}

// InsertKey stores the key derived from suri into the node keystore on host
func (k *Keystore) InsertKey(ctx context.Context, host, chain string, keyType KeyType, suri string) error {
	return k.withSecretFile(ctx, host, "key_"+string(keyType), []byte(suri), func(tmpPath string) error {
		script := k.chown(tmpPath) + "\n" + common.ShellJoin([]string{
			"docker", "run", "--rm",
			"-v", k.container.DataDir + ":" + ContainerDataDir,
			"-v", tmpPath + ":" + secretMountPath + ":ro",
			k.container.Image,
			"key", "insert",
			"--chain", chain,
			"--key-type", string(keyType),
			"--scheme", keyType.Scheme(),
			"--suri", secretMountPath,
		})
		if err := k.exec.Run(ctx, host, script, true); err != nil {
			return fmt.Errorf("failed to insert %s key: %w", keyType, err)
		}
		return nil
	})
}

// InstallNodeKey places the pre-shared network key in the data directory.
// It returns the path of the key as seen from inside the container.
func (k *Keystore) InstallNodeKey(ctx context.Context, host, nodeKey string) (string, error) {
	dest := k.container.DataDir + "/" + NodeKeyFile

	err := k.withSecretFile(ctx, host, "node_key", []byte(nodeKey), func(tmpPath string) error {
		uid := strconv.Itoa(k.runtimeUID)
		script := common.ShellJoin([]string{"install", "-m", "0600", "-o", uid, "-g", uid, tmpPath, dest})
		if err := k.exec.Run(ctx, host, script, true); err != nil {
			return fmt.Errorf("failed to install node key: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ContainerDataDir + "/" + NodeKeyFile, nil
}

// withSecretFile copies data to a file named name inside a fresh 0700 directory on host,
// runs use with the file path, and always removes the directory.
func (k *Keystore) withSecretFile(ctx context.Context, host, name string, data []byte, use func(path string) error) (err error) {
	dir, err := k.secretDir()
	if err != nil {
		return err
	}

	// mkdir refuses existing paths, symlinks included
	if err := k.exec.Run(ctx, host, "mkdir -m 0700 "+common.ShellQuote(dir), false); err != nil {
		return fmt.Errorf("failed to create secret directory: %w", err)
	}
	defer func() {
		if rmErr := k.remove(host, dir); rmErr != nil {
			err = multierror.Append(err, rmErr).ErrorOrNil()
		}
	}()

	path := dir + "/" + name
	if err := k.exec.Upload(ctx, host, path, data); err != nil {
		return fmt.Errorf("failed to copy secret file: %w", err)
	}

	return use(path)
}

// remove runs with a fresh context so that cancellation of ctx never skips it.
func (k *Keystore) remove(host, dir string) error {
	if err := k.exec.Run(context.Background(), host, "rm -rf "+common.ShellQuote(dir), true); err != nil {
		return fmt.Errorf("failed to remove secret directory %s: %w", dir, err)
	}
	return nil
}

func (k *Keystore) chown(path string) string {
	uid := strconv.Itoa(k.runtimeUID)
	return common.ShellJoin([]string{"chown", "-h", uid + ":" + uid, path})
}
