package main

import "github.com/openlane-go/membram/pkg/cmd"

func main() {
	cmd.Execute()
}
