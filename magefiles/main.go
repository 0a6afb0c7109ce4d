package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const (
	GO_VERSION_CONSTRAINT            = ">= 1.19.0"
	GOLANGCI_LINT_VERSION_CONSTRAINT = ">= 1.52.0"
	buildPackage                     = "github.com/armadaproject/arrayjob/internal/arrayjob/build"
)

var binaries = []string{"arrayjob", "arrayjob-control"}

// Build compiles both binaries into ./bin. arrayjob-control must stay next to arrayjob,
// since job templates usually refer to it by a path relative to the arrayjob executable.
func Build() error {
	mg.Deps(goCheck)
	ldflags, err := versionFlags()
	if err != nil {
		return err
	}
	for _, binary := range binaries {
		out := filepath.Join("bin", binaryWithExt(binary))
		fmt.Printf("Building %s...\n", out)
		if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, "./cmd/"+binary); err != nil {
			return err
		}
	}
	return nil
}

// Tests runs the unit tests with the race detector.
func Tests() error {
	mg.Deps(goCheck)
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// CheckLint runs golangci-lint.
func CheckLint() error {
	mg.Deps(golangciLintCheck)
	output, err := sh.Output("golangci-lint", "run", "--timeout", "10m")
	if err != nil {
		fmt.Printf("\nOutput: %s\n", output)
		return errors.Errorf("error running golangci-lint: %v", err)
	}
	return nil
}

// Clean removes build output.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "dist"} {
		os.RemoveAll(path)
	}
}

func versionFlags() (string, error) {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "UNKNOWN"
	}
	version := os.Getenv("RELEASE_VERSION")
	if version == "" {
		version = "dev"
	}
	flags := map[string]string{
		"ReleaseVersion": version,
		"GitCommit":      commit,
		"BuildTime":      time.Now().UTC().Format(time.RFC3339),
	}
	var parts []string
	for name, value := range flags {
		parts = append(parts, fmt.Sprintf("-X %s.%s=%s", buildPackage, name, value))
	}
	return strings.Join(parts, " "), nil
}

func goCheck() error {
	output, err := sh.Output("go", "version")
	if err != nil {
		return errors.Errorf("error running go version: %v", err)
	}
	return checkVersion("go", output, 2, "go", GO_VERSION_CONSTRAINT)
}

func golangciLintCheck() error {
	output, err := sh.Output("golangci-lint", "--version")
	if err != nil {
		return errors.Errorf("error running golangci-lint --version: %v", err)
	}
	return checkVersion("golangci-lint", output, 3, "v", GOLANGCI_LINT_VERSION_CONSTRAINT)
}

// checkVersion parses the field-th whitespace separated field of output as a version and checks it against constraint.
func checkVersion(tool string, output string, field int, prefix string, constraint string) error {
	fields := strings.Fields(output)
	if len(fields) <= field {
		return errors.Errorf("unexpected %s version output: %s", tool, output)
	}
	version, err := semver.NewVersion(strings.TrimPrefix(fields[field], prefix))
	if err != nil {
		return errors.Errorf("error parsing %s version: %v", tool, err)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !c.Check(version) {
		return errors.Errorf("found %s version %s but it failed constraint %s", tool, version, constraint)
	}
	return nil
}

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}
