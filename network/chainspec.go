package network

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/coldstack/privatechain-deploy/internal/common"
	"github.com/coldstack/privatechain-deploy/internal/crypto"
	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrNoAuthorities is returned when a network would have no validators
var ErrNoAuthorities = errors.New("at least one authority is required")

const (
	templateChain = "local"
	runtimePath   = "genesis.runtime"
)

// ChainspecOptions configures BuildChainspec
type ChainspecOptions struct {
	// TemplatePath receives the human-readable chainspec.
	TemplatePath string
	// RawPath receives the raw chainspec the nodes are started with.
	RawPath    string
	Name       string
	ID         string
	SS58Format uint16
}

// BuildChainspec generates the network chainspec from the node's local template
// and the secrets record, then converts it to raw form. It returns the raw chainspec path.
// Any failed step aborts the build; partial files are not considered valid.
func BuildChainspec(ctx context.Context, bin node.SpecBuilder, secrets *model.Secrets, opts ChainspecOptions, log zerolog.Logger) (string, error) {
	if opts.TemplatePath == "" || opts.RawPath == "" {
		return "", errors.New("chainspec and raw chainspec paths are required")
	}

	log.Info().Msg("creating chainspec template")
	template, err := bin.BuildSpec(ctx, templateChain)
	if err != nil {
		return "", err
	}

	log.Info().Int("authorities", len(secrets.Authorities)).Msg("populating chainspec")
	spec, err := PopulateChainspec(template, secrets, opts.Name, opts.ID, opts.SS58Format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(opts.TemplatePath, spec, 0644); err != nil {
		return "", fmt.Errorf("failed to write chainspec: %w", err)
	}
	log.Info().Msgf("wrote file %s", opts.TemplatePath)

	raw, err := bin.BuildRawSpec(ctx, opts.TemplatePath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(opts.RawPath, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write raw chainspec: %w", err)
	}
	log.Info().Msgf("wrote file %s", opts.RawPath)

	return opts.RawPath, nil
}

// PopulateChainspec injects network identity, validators, session keys, balances,
// the sudo key and the coldStack admin key into a chainspec template.
// Fields it does not touch are kept as they are.
func PopulateChainspec(template []byte, secrets *model.Secrets, name, id string, ss58Format uint16) ([]byte, error) {
	if len(secrets.Authorities) == 0 {
		return nil, ErrNoAuthorities
	}
	if !gjson.ValidBytes(template) {
		return nil, errors.New("chainspec template is not valid JSON")
	}
	if !gjson.GetBytes(template, runtimePath).IsObject() {
		return nil, fmt.Errorf("chainspec template has no %s section", runtimePath)
	}

	// Derive keys
	authorities := make([]*model.AccountKeys, 0, len(secrets.Authorities))
	for i, m := range secrets.Authorities {
		keys, err := crypto.DeriveKeys(m, ss58Format)
		if err != nil {
			return nil, fmt.Errorf("authority %d: %w", i, err)
		}
		authorities = append(authorities, keys)
	}
	sudo, err := crypto.DeriveKeys(secrets.Sudo, ss58Format)
	if err != nil {
		return nil, fmt.Errorf("sudo: %w", err)
	}
	admin, err := crypto.DeriveKeys(secrets.Admin, ss58Format)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}

	// Validator order fixes validator indices: keep the secrets file order
	validators := make([]string, 0, len(authorities))
	sessionKeys := make([][]interface{}, 0, len(authorities))
	balances := [][]interface{}{{sudo.Sr25519.Address, common.InitialBalance}}
	for _, k := range authorities {
		validators = append(validators, k.Sr25519.Address)
		sessionKeys = append(sessionKeys, []interface{}{
			k.Sr25519.Address,
			k.Sr25519.Address,
			map[string]string{
				"aura":    k.Sr25519.Address,
				"grandpa": k.Ed25519.Address,
			},
		})
		balances = append(balances, []interface{}{k.Sr25519.Address, common.InitialBalance})
	}

	updates := []struct {
		path  string
		value interface{}
	}{
		{"name", name},
		{"id", id},
		{runtimePath + ".validatorSet.validators", validators},
		{runtimePath + ".session.keys", sessionKeys},
		{runtimePath + ".balances.balances", balances},
		{runtimePath + ".sudo.key", sudo.Sr25519.Address},
		{runtimePath + ".coldStack.key", admin.Sr25519.Address},
	}

	spec := template
	for _, u := range updates {
		spec, err = sjson.SetBytes(spec, u.path, u.value)
		if err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", u.path, err)
		}
	}

	return pretty.Pretty(spec), nil
}
