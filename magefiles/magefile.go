//go:build mage

// Package main provides build targets for the larder project using Mage.
//
// Usage:
//
//	mage build      Compile the larder binary to bin/
//	mage test       Run all tests
//	mage testUnit   Run tests in short mode (skips end-to-end CLI runs)
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install larder to GOPATH/bin
//	mage stats      Print Go LOC per package
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "larder"
	binaryDir   = "bin"
	cmdDir      = "./cmd/larder"
	versionVar  = "github.com/mesh-intelligence/larder/internal/cli.Version"
	envVersion  = "LARDER_VERSION"
	defaultVers = "v0.1.0-dev"
)

// Build compiles the larder binary to bin/. LARDER_VERSION, or the current
// git tag, is stamped into the binary.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X " + versionVar + "=" + version()
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

func version() string {
	if v := os.Getenv(envVersion); v != "" {
		return v
	}
	if tag, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && tag != "" {
		return strings.TrimSpace(tag)
	}
	return defaultVers
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
