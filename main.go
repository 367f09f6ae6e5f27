package main

import "github.com/brensch/rarsweep/cmd"

func main() {
	cmd.Execute()
}
