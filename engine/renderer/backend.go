package renderer

import "github.com/spaghettifunk/anima-hal/engine/renderer/binding"

/**
 * @brief Anything that resources can be bound through: a shader (static
 * variables), a pipeline state (static variables of all its shaders) or a
 * shader resource binding (mutable and dynamic variables).
 */
type ResourceBinder interface {
	/** @brief Resolves every variable by name in the mapping. */
	BindResources(mapping binding.ResourceMapping, flags binding.BindFlags)
	/** @brief Returns the named variable, or nil after logging a miss. */
	GetVariableByName(name string) *binding.ShaderVariable
}

var (
	_ ResourceBinder = (*Shader)(nil)
	_ ResourceBinder = (*PipelineState)(nil)
	_ ResourceBinder = (*ShaderResourceBinding)(nil)
)
