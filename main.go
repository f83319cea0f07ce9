package main

import "github.com/notargets/gofault/cmd"

func main() {
	cmd.Execute()
}
