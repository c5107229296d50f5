package main

import "github.com/salazaj/provenance-recorder/cmd/prov/cmd"

func main() {
	cmd.Execute()
}
