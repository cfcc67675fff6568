package wgpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// Variant binds a backend identifier to a gogpu/wgpu HAL backend.
type Variant struct {
	Type     gpucore.BackendType
	HAL      gputypes.Backend
	Name     string
	Priority int
}

// Variants lists the HAL backends registered by this package. A variant
// whose HAL package is not linked into the binary reports unsupported;
// import github.com/gogpu/wgpu/hal/allbackends to link the platform's set.
var Variants = []Variant{
	{gpucore.BackendVulkan, gputypes.BackendVulkan, "Vulkan", backend.PriorityVulkan},
	{gpucore.BackendDX12, gputypes.BackendDX12, "DirectX 12", backend.PriorityDX12},
	{gpucore.BackendMetal, gputypes.BackendMetal, "Metal", backend.PriorityMetal},
	{gpucore.BackendGL, gputypes.BackendGL, "OpenGL", backend.PriorityGL},
	{gpucore.BackendWGPUSoftware, gputypes.BackendEmpty, "wgpu software", backend.PriorityWGPUSoftware},
}

// VariantFor returns the variant registered for t.
func VariantFor(t gpucore.BackendType) (Variant, bool) {
	for _, v := range Variants {
		if v.Type == t {
			return v, true
		}
	}
	return Variant{}, false
}

func init() {
	for _, v := range Variants {
		backend.Register(v.Type, v.Priority, func() backend.Driver {
			return New(v)
		})
	}
}
