package model

import "fmt"

// Role is the part a host plays in the network.
type Role string

const (
	// RoleBootValidator is the single validator other peers dial first.
	// It runs with the pre-shared network identity from the secrets file.
	RoleBootValidator Role = "BOOT_VALIDATOR"
	RoleValidator     Role = "VALIDATOR"
	RoleAPI           Role = "API"
)

// IsValidator reports whether the role produces blocks.
func (r Role) IsValidator() bool {
	return r == RoleBootValidator || r == RoleValidator
}

// Target is a host to provision together with its role.
type Target struct {
	Host string `json:"host"`
	Role Role   `json:"role"`
}

// Validate validates Target fields.
func (t Target) Validate() error {
	if t.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	switch t.Role {
	case RoleBootValidator, RoleValidator, RoleAPI:
		return nil
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
}

// Environment selects the chainspec baked into the node image.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvStaging    Environment = "staging"
)

// Validate validates environment name.
func (e Environment) Validate() error {
	if e != EnvProduction && e != EnvStaging {
		return fmt.Errorf("env must be production or staging")
	}
	return nil
}
