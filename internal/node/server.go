package node

import (
	"strconv"

	"github.com/coldstack/privatechain-deploy/internal/common"
)

// ContainerDataDir is where the host data directory is mounted inside the container.
const ContainerDataDir = "/data"

// ChainspecPath returns the chainspec baked into the image for env
func ChainspecPath(env string) string {
	return "/chainspec/" + env + ".json"
}

// ServerFlags are the node flags of the long-running server mode.
type ServerFlags struct {
	Validator bool
	Name      string
	Chain     string
	Port      int
	// WSPort and RPCPort are only passed when non-zero.
	WSPort  int
	RPCPort int
	// External exposes RPC and WebSocket-RPC outside the container with CORS fully open.
	External    bool
	Bootnodes   []string
	NodeKeyFile string
}

// Args renders the flags in the order the node documents them
func (f ServerFlags) Args() []string {
	var args []string
	if f.Validator {
		args = append(args, "--validator")
	}
	args = append(args,
		"--name", f.Name,
		"--pruning", "archive",
		"--no-telemetry", "--no-prometheus",
		"--chain", f.Chain,
		"--port", strconv.Itoa(f.Port),
	)
	if f.WSPort != 0 {
		args = append(args, "--ws-port", strconv.Itoa(f.WSPort))
	}
	if f.External {
		args = append(args, "--rpc-external", "--ws-external")
	}
	if f.RPCPort != 0 {
		args = append(args, "--rpc-port", strconv.Itoa(f.RPCPort))
	}
	if f.External {
		args = append(args, "--rpc-cors", "all")
	}
	if f.NodeKeyFile != "" {
		args = append(args, "--node-key-file", f.NodeKeyFile)
	}
	for _, b := range f.Bootnodes {
		args = append(args, "--bootnodes", b)
	}
	return args
}

// Container describes the node container on a host.
type Container struct {
	Image   string
	DataDir string
}

// RunCommand returns the docker command that starts the node detached and
// restarts it unless it is stopped explicitly. Every port in publish is
// bound to the same host port.
func (c Container) RunCommand(publish []int, flags ServerFlags) string {
	args := []string{"docker", "run", "-d", "--restart", "unless-stopped"}
	for _, p := range publish {
		args = append(args, "-p", strconv.Itoa(p)+":"+strconv.Itoa(p))
	}
	args = append(args, "-v", c.DataDir+":"+ContainerDataDir, c.Image)
	args = append(args, flags.Args()...)
	return common.ShellJoin(args)
}

// RunningCheck fails with exit status 3 when a container from the image already runs.
func (c Container) RunningCheck() string {
	filter := common.ShellQuote("ancestor=" + c.Image)
	return "if [ -n \"$(docker ps -q --filter " + filter + ")\" ]; then\n" +
		"  echo " + common.ShellQuote("node container from "+c.Image+" is already running") + " >&2\n" +
		"  exit 3\n" +
		"fi"
}

// RemoveCommand stops and removes every container started from image.
func RemoveCommand(image string) string {
	filter := common.ShellQuote("ancestor=" + image)
	return "docker ps -aq --filter " + filter + " \\\n  | xargs -r docker stop | xargs -r docker rm"
}
