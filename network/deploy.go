package network

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/coldstack/privatechain-deploy/internal/common"
	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"
	"github.com/coldstack/privatechain-deploy/internal/remote"

	"github.com/rs/zerolog"
)

var (
	// ErrNoTargets is returned when a deployment names no host at all
	ErrNoTargets = errors.New("at least one validator node is required")
	// ErrNodeRunning is returned when the preflight finds a node container on the host
	ErrNodeRunning = errors.New("node container is already running")
)

// preflight exit status of node.Container.RunningCheck
const runningStatus = 3

// PlanTargets assigns roles to the hosts of a deployment.
// The first validator becomes the boot validator. Validators come before API nodes.
func PlanTargets(validators, apis []string) ([]model.Target, error) {
	if len(validators) == 0 {
		return nil, ErrNoTargets
	}

	targets := make([]model.Target, 0, len(validators)+len(apis))
	for i, host := range validators {
		role := model.RoleValidator
		if i == 0 {
			role = model.RoleBootValidator
		}
		targets = append(targets, model.Target{Host: host, Role: role})
	}
	for _, host := range apis {
		targets = append(targets, model.Target{Host: host, Role: model.RoleAPI})
	}

	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// DeployOptions holds the per-deployment settings shared by every host.
type DeployOptions struct {
	Env     model.Environment
	Secrets *model.Secrets
	// BootAddr is the address other nodes use to reach the boot validator.
	// Required when any target is not the boot validator.
	BootAddr   string
	NamePrefix string
	P2PPort    int
	RPCPort    int
	WSPort     int
	RuntimeUID int
}

func (o DeployOptions) validate() error {
	if err := o.Env.Validate(); err != nil {
		return err
	}
	if o.Secrets == nil {
		return errors.New("secrets are required")
	}
	if o.P2PPort <= 0 || o.RPCPort <= 0 || o.WSPort <= 0 {
		return errors.New("p2p, rpc and ws ports must be positive")
	}
	return nil
}

// Provisioner brings hosts from bare to a running node container.
type Provisioner struct {
	Exec      remote.Executor
	Keystore  *node.Keystore
	Container node.Container
	Log       zerolog.Logger
}

// NewProvisioner creates a Provisioner whose keystore shares exec and container
func NewProvisioner(exec remote.Executor, container node.Container, runtimeUID int, log zerolog.Logger) *Provisioner {
	return &Provisioner{
		Exec:      exec,
		Keystore:  node.NewKeystore(exec, container, runtimeUID),
		Container: container,
		Log:       log,
	}
}

// Deploy provisions targets one at a time in the given order and stops at the first failure.
// Hosts provisioned before the failure are left running.
func (p *Provisioner) Deploy(ctx context.Context, targets []model.Target, opts DeployOptions) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if err := checkOrder(targets); err != nil {
		return err
	}
	for _, t := range targets {
		if t.Role != model.RoleBootValidator && opts.BootAddr == "" {
			return errors.New("boot node address is required")
		}
	}

	for i, t := range targets {
		p.Log.Info().Str("host", t.Host).Str("role", string(t.Role)).Msgf("provisioning host %d/%d", i+1, len(targets))
		if err := p.Provision(ctx, t, opts); err != nil {
			return fmt.Errorf("failed to provision %s: %w", t.Host, err)
		}
	}
	return nil
}

// checkOrder requires at most one boot validator, placed first, and validators before API nodes.
func checkOrder(targets []model.Target) error {
	seenAPI := false
	for i, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
		switch {
		case t.Role == model.RoleBootValidator && i != 0:
			return fmt.Errorf("boot validator %s must be the first target", t.Host)
		case t.Role == model.RoleAPI:
			seenAPI = true
		case seenAPI:
			return fmt.Errorf("validator %s must come before API nodes", t.Host)
		}
	}
	return nil
}

// Provision runs every step for a single host.
func (p *Provisioner) Provision(ctx context.Context, target model.Target, opts DeployOptions) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}
	host := target.Host
	chain := node.ChainspecPath(string(opts.Env))

	// Step 1: refuse to start a second node next to a running one
	if err := p.Exec.Run(ctx, host, p.Container.RunningCheck(), false); err != nil {
		if status, ok := remote.ExitStatus(err); ok && status == runningStatus {
			return fmt.Errorf("%w on %s", ErrNodeRunning, host)
		}
		return fmt.Errorf("failed to check running containers: %w", err)
	}

	// Step 2: prepare storage owned by the node runtime user
	if err := p.Exec.Run(ctx, host, p.storageScript(opts.RuntimeUID), true); err != nil {
		return fmt.Errorf("failed to prepare data directory: %w", err)
	}
	p.Log.Debug().Str("host", host).Msg("storage ready")

	// Step 3: seed session keys
	if target.Role.IsValidator() {
		if len(opts.Secrets.Authorities) == 0 {
			return ErrNoAuthorities
		}
		for _, kt := range node.SessionKeyTypes {
			if err := p.Keystore.InsertKey(ctx, host, chain, kt, opts.Secrets.Authorities[0]); err != nil {
				return err
			}
		}
		p.Log.Debug().Str("host", host).Msg("keystore seeded")
	}

	// Step 4: start the node
	flags := node.ServerFlags{
		Validator: target.Role.IsValidator(),
		Name:      nodeName(opts.NamePrefix, target.Role, opts.Env),
		Chain:     chain,
		Port:      opts.P2PPort,
	}
	publish := []int{opts.P2PPort}

	if target.Role == model.RoleBootValidator {
		keyFile, err := p.Keystore.InstallNodeKey(ctx, host, opts.Secrets.NodeKey)
		if err != nil {
			return err
		}
		flags.NodeKeyFile = keyFile
	} else {
		bootnode, err := common.BootnodeAddr(opts.BootAddr, opts.P2PPort, opts.Secrets.PeerID)
		if err != nil {
			return err
		}
		flags.Bootnodes = []string{bootnode}
	}

	if target.Role == model.RoleAPI {
		flags.RPCPort = opts.RPCPort
		flags.WSPort = opts.WSPort
		flags.External = true
		publish = append(publish, opts.RPCPort, opts.WSPort)
	}

	if err := p.Exec.Run(ctx, host, p.Container.RunCommand(publish, flags), false); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}
	p.Log.Info().Str("host", host).Str("name", flags.Name).Msg("node started")

	return nil
}

func (p *Provisioner) storageScript(uid int) string {
	owner := strconv.Itoa(uid) + ":" + strconv.Itoa(uid)
	dir := common.ShellQuote(p.Container.DataDir)
	return "mkdir -p " + dir + "\nchown -R " + owner + " " + dir
}

func nodeName(prefix string, role model.Role, env model.Environment) string {
	kind := "Validator"
	if role == model.RoleAPI {
		kind = "Public"
	}
	return prefix + " " + kind + " " + string(env)
}
