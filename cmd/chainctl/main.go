// chainctl deploys and operates the private chain: secrets, chainspec, node
// provisioning, health checks and cleanup.
package main

import "github.com/coldstack/privatechain-deploy/cmd/chainctl/cmd"

func main() {
	cmd.Execute()
}
