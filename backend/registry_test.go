package backend

import (
	"slices"
	"testing"

	"github.com/gogpu/overlay/gpucore"
)

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	soft := func() Driver { return NewSoftwareDriver() }
	r.Register(gpucore.BackendSoftware, PrioritySoftware, soft)
	r.Register(gpucore.BackendGL, PriorityGL, soft)
	r.Register(gpucore.BackendVulkan, PriorityVulkan, soft)
	r.Register(gpucore.BackendDX12, PriorityVulkan, soft)

	got := r.Available()
	want := []gpucore.BackendType{
		gpucore.BackendDX12, // tie with vulkan, ordered by name
		gpucore.BackendVulkan,
		gpucore.BackendGL,
		gpucore.BackendSoftware,
	}
	if !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestRegistryReplaceAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(gpucore.BackendGL, 5, func() Driver { return NewSoftwareDriver() })
	r.Register(gpucore.BackendGL, 50, func() Driver { return NewSoftwareDriver() })

	e, ok := r.Lookup(gpucore.BackendGL)
	if !ok || e.Priority != 50 {
		t.Errorf("Lookup() = %+v, %v; want priority 50", e, ok)
	}

	r.Unregister(gpucore.BackendGL)
	if _, ok := r.Lookup(gpucore.BackendGL); ok {
		t.Error("backend still registered after Unregister")
	}
	if d := r.Get(gpucore.BackendGL); d != nil {
		t.Errorf("Get() after Unregister = %v, want nil", d)
	}
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	if got := r.Entries(); len(got) != 0 {
		t.Errorf("Entries() = %v, want empty", got)
	}
}
