package main

import "github.com/nextlevelbuilder/hookgate/cmd"

func main() {
	cmd.Execute()
}
