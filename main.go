package main

import "github.com/aswapdex/aswap/cmd"

func main() {
	cmd.Execute()
}
