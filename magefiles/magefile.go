//go:build mage

// Package main provides build targets for the holons project using Mage.
//
// Usage:
//
//	mage build          Compile the descriptors binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests without the race detector, skipping slow ones
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write coverage.out and print per-function coverage
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install descriptors to GOPATH/bin
//	mage stats          Print Go line counts per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "descriptors"
	binaryDir  = "bin"
	cmdDir     = "./cmd/descriptors"
)

// ldflags stamps the binary with VERSION from the environment, or the
// output of git describe.
func ldflags() string {
	v := os.Getenv("VERSION")
	if v == "" {
		if out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil {
			v = out
		}
	}
	if v == "" {
		return ""
	}
	return "-X main.version=" + v
}

// Build compiles the descriptors binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := os.RemoveAll(coverProfile); err != nil {
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
