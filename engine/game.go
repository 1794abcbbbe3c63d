package engine

// Game hooks into the engine run loop.
type Game struct {
	Name         string
	State        interface{}
	FnInitialize Initialize
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type Shutdown func() error
