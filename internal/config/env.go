package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

const envPrefix = "CHAINCTL"

// Config contains all configuration parameters for chainctl.
// Values come from CHAINCTL_* environment variables; command flags override some of them.
type Config struct {
	Image          string `envconfig:"IMAGE" default:"coldstack/privatechain"`
	DataDir        string `envconfig:"DATA_DIR" default:"/var/blockchain"`
	RuntimeUID     int    `envconfig:"RUNTIME_UID" default:"1000"`
	NodeNamePrefix string `envconfig:"NODE_NAME_PREFIX" default:"Coldstack"`
	P2PPort        int    `envconfig:"P2P_PORT" default:"30333"`
	RPCPort        int    `envconfig:"RPC_PORT" default:"9933"`
	WSPort         int    `envconfig:"WS_PORT" default:"9944"`
	SS58Format     uint16 `envconfig:"SS58_FORMAT" default:"42"`

	SSHUser       string `envconfig:"SSH_USER"`
	SSHKey        string `envconfig:"SSH_KEY" default:"~/.ssh/id_ed25519"`
	SSHKnownHosts string `envconfig:"SSH_KNOWN_HOSTS" default:"~/.ssh/known_hosts"`
	SSHPort       int    `envconfig:"SSH_PORT" default:"22"`
	SSHTransport  string `envconfig:"SSH_TRANSPORT" default:"native"`

	HealthTimeout  time.Duration `envconfig:"HEALTH_TIMEOUT" default:"30s"`
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"1s"`

	Port    string `envconfig:"PORT" default:"8080"`
	NodeURL string `envconfig:"NODE_URL"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads a fresh Config from the environment without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process(envPrefix, c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if c.SSHUser == "" {
		if u, err := user.Current(); err == nil {
			c.SSHUser = u.Username
		}
	}
	if c.SSHTransport != "native" && c.SSHTransport != "openssh" {
		return nil, fmt.Errorf("%s_SSH_TRANSPORT must be native or openssh", envPrefix)
	}
	if c.HealthTimeout <= 0 {
		return nil, fmt.Errorf("%s_HEALTH_TIMEOUT must be positive", envPrefix)
	}
	c.SSHKey = expandHome(c.SSHKey)
	c.SSHKnownHosts = expandHome(c.SSHKnownHosts)
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// ImageRef returns image reference with tag, or the bare image when tag is empty
func (c *Config) ImageRef(tag string) string {
	if tag == "" {
		return c.Image
	}
	return c.Image + ":" + tag
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// PromptForPassphrase prompts the operator for the SSH key passphrase in the terminal.
// The passphrase is read without echoing. Caller must zero the returned slice after use.
func PromptForPassphrase(keyPath string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: load the key into ssh-agent or run interactively")
	}
	fmt.Fprintf(os.Stderr, "Enter passphrase for %s: ", keyPath)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}
