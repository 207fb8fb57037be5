package main

import "github.com/notargets/gomeshgen/cmd"

func main() {
	cmd.Execute()
}
