//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"codeberg.org/snonux/verbdeck/internal"
)

const binary = "verbdeck"

// Default target to run when none is specified
var Default = Build

// Build compiles the verbdeck binary
func Build() error {
	fmt.Printf("Building %s %s\n", binary, internal.Version)
	return sh.RunV("go", "build", "-o", binary, "./cmd/verbdeck")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Install builds and copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(home, "go", "bin", binary), binary)
}

// Clean removes the binary and generated media
func Clean() error {
	for _, path := range []string{binary, "media", "Finnish_Verbs.apkg"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}
