package main

import "github.com/hupe1980/blockselect/cmd/blockselect/cmd"

func main() {
	cmd.Execute()
}
