package main

import "obsidian-remote-mcp/cmd/gateway/cli"

func main() {
	cli.Execute()
}
