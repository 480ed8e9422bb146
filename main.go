package main

import "github.com/nextlevelbuilder/coda/cmd"

func main() {
	cmd.Execute()
}
