package main

import "github.com/notargets/fembem/cmd"

func main() {
	cmd.Execute()
}
