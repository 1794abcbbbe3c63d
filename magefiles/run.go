//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Loads the shaders and commits the testbed scene.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	_, err := executeCmd("bin/anima-hal", withArgs("-testbed"), withStream())
	return err
}

// Runs the engine and reloads shaders as they change until interrupted.
func (Run) Watch() error {
	mg.Deps(Build.Engine)
	_, err := executeCmd("bin/anima-hal", withArgs("-testbed", "-watch"), withStream())
	return err
}
