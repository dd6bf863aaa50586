//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/sh"
)

// Test runs all tests, including the end-to-end CLI runs.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// TestUnit runs tests in short mode, skipping the end-to-end CLI runs.
func TestUnit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Cover runs all tests with a coverage profile and prints the per-function
// summary.
func Cover() error {
	const profile = "coverage.out"
	if err := sh.RunV(binGo, "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	out, err := sh.Output(binGo, "tool", "cover", "-func="+profile)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
