// Package main is the operator CLI: project keys, admin password hashes and
// one-off index reconcile runs.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
