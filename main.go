package main

import "github.com/codeurluce/hellocenter-presence/cmd"

func main() {
	cmd.Execute()
}
