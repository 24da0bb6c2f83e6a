package main

import "github.com/davarch/tenant-console/cmd/tenant-console/cli"

func main() {
	cli.Execute()
}
