// Command deployer bootstraps a synthetic-asset exchange on a Solana cluster.
package main

func main() {
	Execute()
}
