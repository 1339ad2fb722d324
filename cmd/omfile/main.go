// Package main provides the omfile CLI tool for building, inspecting and
// reading chunked array containers.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
