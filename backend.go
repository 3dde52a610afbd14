package quad

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad/internal/gpu"
)

// Backend names accepted by WithBackend.
const (
	BackendAuto     = "auto"
	BackendVulkan   = "vulkan"
	BackendMetal    = "metal"
	BackendDX12     = "dx12"
	BackendGL       = "gl"
	BackendSoftware = "software"
)

// backendPriority is the order "auto" tries registered backends in.
// GPU APIs first, the CPU rasterizer last.
var backendPriority = []string{BackendVulkan, BackendMetal, BackendDX12, BackendGL, BackendSoftware}

// backends maps names to hal backends. The built-in factories look the
// variant up in the hal registry at call time, so a backend is available
// once its package is imported (see github.com/gogpu/wgpu/hal/allbackends).
var backends = newBackendRegistry()

// builtinBackends maps backend names to hal variants. The software
// rasterizer registers itself as the empty variant.
var builtinBackends = map[string]gputypes.Backend{
	BackendVulkan:   gputypes.BackendVulkan,
	BackendMetal:    gputypes.BackendMetal,
	BackendDX12:     gputypes.BackendDX12,
	BackendGL:       gputypes.BackendGL,
	BackendSoftware: gputypes.BackendEmpty,
}

func newBackendRegistry() *gpucontext.Registry[hal.Backend] {
	r := gpucontext.NewRegistry[hal.Backend](gpucontext.WithPriority(backendPriority...))
	for name, variant := range builtinBackends {
		r.Register(name, halLookup(variant))
	}
	return r
}

// variantName returns the backend name for a hal variant, falling back to
// the variant's own string for variants without one.
func variantName(variant gputypes.Backend) string {
	for name, v := range builtinBackends {
		if v == variant {
			return name
		}
	}
	return strings.ToLower(variant.String())
}

func halLookup(variant gputypes.Backend) func() hal.Backend {
	return func() hal.Backend {
		b, ok := hal.GetBackend(variant)
		if !ok {
			return nil
		}
		return b
	}
}

// RegisterBackend registers or replaces a named backend factory. The
// factory may return nil when the backend is not usable on this system.
// RegisterBackend is safe for concurrent use.
func RegisterBackend(name string, factory func() hal.Backend) {
	backends.Register(name, factory)
}

// UnregisterBackend removes a named backend.
func UnregisterBackend(name string) {
	backends.Unregister(name)
}

// AvailableBackends returns the sorted names of registered backends whose
// factory currently yields a usable hal backend.
func AvailableBackends() []string {
	var names []string
	for _, name := range backends.Available() {
		if backends.Get(name) != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// resolveBackend picks the hal backend described by the options and
// returns it with the name it was selected under.
func resolveBackend(o *options) (hal.Backend, string, error) {
	if o.halBackend != nil {
		return o.halBackend, variantName(o.halBackend.Variant()), nil
	}

	name := o.backendName
	if name == "" || name == BackendAuto {
		for _, candidate := range backendPriority {
			if b := backends.Get(candidate); b != nil {
				return b, candidate, nil
			}
		}
		// Names registered outside the priority list.
		for _, candidate := range AvailableBackends() {
			if b := backends.Get(candidate); b != nil {
				return b, candidate, nil
			}
		}
		if b, err := hal.SelectBestBackend(); err == nil {
			return b, variantName(b.Variant()), nil
		}
		return nil, "", fmt.Errorf("%w: %w: none registered (import github.com/gogpu/wgpu/hal/allbackends)",
			gpu.ErrSetup, gpu.ErrNoBackend)
	}

	if !backends.Has(name) {
		return nil, "", fmt.Errorf("%w: %w: unknown backend %q", gpu.ErrSetup, gpu.ErrNoBackend, name)
	}
	b := backends.Get(name)
	if b == nil {
		return nil, "", fmt.Errorf("%w: %w: backend %q is not compiled in", gpu.ErrSetup, gpu.ErrNoBackend, name)
	}
	return b, name, nil
}
