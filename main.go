package main

import "github.com/toteco/apiserver/cmd"

func main() {
	cmd.Execute()
}
