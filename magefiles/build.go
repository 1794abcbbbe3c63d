//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the engine binary into bin/.
func (Build) Engine() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/anima-hal", "."), withStream())
	return err
}

// Runs every package test.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs go vet over the module.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Tidies go.mod and verifies the downloaded modules.
func (Build) Deps() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("mod", "verify"), withDir("."))
	return err
}
