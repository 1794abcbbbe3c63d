/*
Loads the engine configuration and the shader assets, then optionally runs
the testbed scene against them
*/
package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-hal/engine"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/testbed"
)

func main() {
	var (
		configPath = flag.String("config", "engine.toml", "Engine configuration file")
		runTestbed = flag.Bool("testbed", false, "Bind and commit the testbed scene")
		frames     = flag.Int("frames", 3, "Frames committed by the testbed")
		watch      = flag.Bool("watch", false, "Reload shaders when their files change")
	)
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = core.DefaultConfig()
	} else if err != nil {
		core.LogFatal(err.Error())
	}
	if *watch {
		cfg.Assets.Watch = true
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}
	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}
	if err := e.LoadShaders(); err != nil {
		// shaders that loaded stay usable
		core.LogError(err.Error())
	}
	for _, name := range e.Shaders().GetNames() {
		shader, _ := e.Shaders().Get(name)
		core.LogInfo("%s: %s shader, %d static variables", name, shader.GetShaderType(), shader.GetVariableCount())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		e.Quit()
	}()

	var game *engine.Game
	if *runTestbed {
		game = testbed.NewTestGame(*frames)
	}
	runErr := e.Run(game)

	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		os.Exit(1)
	}
}
