package renderer

import (
	"github.com/spaghettifunk/anima-hal/engine/containers"
	"github.com/spaghettifunk/anima-hal/engine/core"
	"github.com/spaghettifunk/anima-hal/engine/renderer/binding"
)

// CommitFlags control CommitShaderResources.
type CommitFlags uint32

const (
	// Run the full binding verification even when the device config disables it.
	CommitFlagVerifyBindings CommitFlags = 1 << iota
)

// Per-draw dynamic descriptor space made during one frame.
type frameAllocations struct {
	frame  uint64
	allocs []binding.DescriptorHeapAllocation
}

/**
 * @brief Records pipeline and resource state for draws. A context is used by
 * one goroutine at a time.
 */
type DeviceContext struct {
	device *Device
	pso    *PipelineState

	frame   uint64
	current []binding.DescriptorHeapAllocation
	// retired frames whose dynamic descriptors may still be in use by the GPU
	inFlight *containers.RingQueue[frameAllocations]
}

func newDeviceContext(device *Device) *DeviceContext {
	return &DeviceContext{
		device:   device,
		inFlight: containers.NewRingQueue[frameAllocations](int(device.config.FramesInFlight) + 1),
	}
}

func (c *DeviceContext) SetPipelineState(pso *PipelineState) {
	c.pso = pso
}

func (c *DeviceContext) GetPipelineState() *PipelineState {
	return c.pso
}

func (c *DeviceContext) GetFrameNumber() uint64 {
	return c.frame
}

/**
 * @brief Makes the resources of srb visible to the next draw or dispatch.
 * Static resources are copied on first use and dynamic tables get fresh
 * descriptor space. Returns false when nothing could be committed.
 */
func (c *DeviceContext) CommitShaderResources(srb *ShaderResourceBinding, flags CommitFlags) bool {
	if c.pso == nil {
		core.LogError("No pipeline state is bound to the pipeline")
		return false
	}
	if srb == nil {
		if c.pso.GetRootSignature().GetNumRootTables() == 0 {
			return true
		}
		core.LogError("Pipeline state '%s' requires a shader resource binding object to commit resources", c.pso.GetName())
		return false
	}
	if c.pso.IsIncompatibleWith(srb.GetPipelineState()) {
		core.LogError("Shader resource binding object is not compatible with the currently bound pipeline state")
		return false
	}

	if !srb.StaticResourcesInitialized() {
		srb.InitializeStaticResources()
	}
	if c.device.config.VerifyBindings || flags&CommitFlagVerifyBindings != 0 {
		srb.VerifyBindings()
	}

	allocs, err := srb.commitDynamicDescriptors(c.device.heaps)
	if err != nil {
		core.LogError("Failed to commit shader resources of pipeline '%s': %s", c.pso.GetName(), err)
		return false
	}
	c.current = append(c.current, allocs...)
	core.MetricsCommit()
	return true
}

/**
 * @brief Ends the current frame. Dynamic descriptor space is returned to the
 * device once it is older than the configured number of frames in flight.
 */
func (c *DeviceContext) FinishFrame() {
	for !c.inFlight.IsEmpty() && c.inFlight.Len() >= int(c.device.config.FramesInFlight) {
		c.releaseOldest()
	}
	if err := c.inFlight.Enqueue(frameAllocations{frame: c.frame, allocs: c.current}); err != nil {
		core.LogError("Failed to retire frame %d: %s", c.frame, err)
	}
	c.current = nil
	c.frame++
}

func (c *DeviceContext) releaseOldest() {
	fa, err := c.inFlight.Dequeue()
	if err != nil {
		return
	}
	for _, a := range fa.allocs {
		a.GetHeap().Free(a)
	}
}

/** @brief Releases every pending dynamic allocation. Call once the GPU is idle. */
func (c *DeviceContext) Flush() {
	for !c.inFlight.IsEmpty() {
		c.releaseOldest()
	}
	for _, a := range c.current {
		a.GetHeap().Free(a)
	}
	c.current = nil
}
