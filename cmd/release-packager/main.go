package main

import "github.com/oshokin/oclhelpers-release/cmd/release-packager/cmd"

func main() {
	cmd.Execute()
}
