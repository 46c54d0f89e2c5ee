package main

import "github.com/akyaiy/rpcnode/cmd"

func main() {
	cmd.Execute()
}
