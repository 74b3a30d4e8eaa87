// Package node wraps the containerized chain binary: key generation, chainspec
// templating, keystore seeding and the long-running server command line.
package node

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Identity is the libp2p network identity of the boot node.
type Identity struct {
	NodeKey string
	PeerID  string
}

// Runner runs a local command and captures its output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// IdentityGenerator produces a fresh network identity.
type IdentityGenerator interface {
	GenerateIdentity(ctx context.Context) (Identity, error)
}

// SpecBuilder produces chainspecs with the node binary.
type SpecBuilder interface {
	// BuildSpec returns the human-readable chainspec of a built-in chain ("local").
	BuildSpec(ctx context.Context, chain string) ([]byte, error)
	// BuildRawSpec converts the chainspec file at specPath into its raw form.
	BuildRawSpec(ctx context.Context, specPath string) ([]byte, error)
}

// Binary runs the node image locally with docker.
type Binary struct {
	runner Runner
	image  string
}

// NewBinary creates a Binary for image (with or without tag)
func NewBinary(runner Runner, image string) *Binary {
	return &Binary{runner: runner, image: image}
}

// GenerateIdentity runs "key generate-node-key".
// The node prints the secret key on stdout and the peer id on stderr.
func (b *Binary) GenerateIdentity(ctx context.Context) (Identity, error) {
	stdout, stderr, err := b.runner.Output(ctx, "docker", "run", "--rm", b.image, "key", "generate-node-key")
	if err != nil {
		return Identity{}, fmt.Errorf("failed to generate node key: %w", err)
	}

	id := Identity{
		NodeKey: strings.TrimSpace(string(stdout)),
		PeerID:  lastLine(stderr),
	}
	if id.NodeKey == "" || id.PeerID == "" {
		return Identity{}, errors.New("generate-node-key returned empty key or peer id")
	}
	return id, nil
}

// BuildSpec implements SpecBuilder
func (b *Binary) BuildSpec(ctx context.Context, chain string) ([]byte, error) {
	stdout, _, err := b.runner.Output(ctx, "docker", "run", "--rm", b.image,
		"build-spec", "--disable-default-bootnode", "--chain", chain)
	if err != nil {
		return nil, fmt.Errorf("failed to build chainspec: %w", err)
	}
	return stdout, nil
}

// BuildRawSpec implements SpecBuilder.
// The directory of specPath is mounted into the container at /chainspec.
func (b *Binary) BuildRawSpec(ctx context.Context, specPath string) ([]byte, error) {
	abs, err := filepath.Abs(specPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chainspec path: %w", err)
	}

	stdout, _, err := b.runner.Output(ctx, "docker", "run", "--rm",
		"-v", filepath.Dir(abs)+":/chainspec", b.image,
		"build-spec", "--chain=/chainspec/"+filepath.Base(abs), "--raw", "--disable-default-bootnode")
	if err != nil {
		return nil, fmt.Errorf("failed to build raw chainspec: %w", err)
	}
	return stdout, nil
}

// lastLine returns the last non-empty line; the node may log before printing the peer id.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
