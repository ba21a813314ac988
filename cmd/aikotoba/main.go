// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

// Command aikotoba runs the account and token-lifecycle backend.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
