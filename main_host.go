//go:build !tinygo

package main

import "baer/cmd"

func main() {
	cmd.Execute()
}
