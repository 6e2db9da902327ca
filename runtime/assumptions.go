package runtime

import "github.com/wippyai/jsi-runtime/engine"

// RuntimeAssumptions are the engine capabilities the binding layer
// relies on. They pick between alternative strategies at construction.
type RuntimeAssumptions struct {
	// Name is the default runtime description and cache label.
	Name string

	// SupportsNativeProxy selects engine-level proxy traps for host
	// objects instead of a script Proxy constructor.
	SupportsNativeProxy bool

	// SupportsNativeWeakRefs makes weak objects non-owning. Without it a
	// weak object holds its target strongly.
	SupportsNativeWeakRefs bool

	SupportsNativeDebugProtocol bool
	SupportsPreparedScripts     bool
	SupportsPromiseCallbacks    bool

	// SupportsExternalArrayBuffers allows reading ArrayBuffer storage.
	SupportsExternalArrayBuffers bool
}

// EngineAssumptions returns the assumptions for the linked engine.
func EngineAssumptions() RuntimeAssumptions {
	return assumptionsFor(engine.EngineCapabilities())
}

func assumptionsFor(c engine.Capabilities) RuntimeAssumptions {
	return RuntimeAssumptions{
		Name:                         c.Name,
		SupportsNativeProxy:          c.NativeProxy,
		SupportsNativeWeakRefs:       c.WeakReferences,
		SupportsNativeDebugProtocol:  c.Inspector,
		SupportsPreparedScripts:      c.PreparedScripts,
		SupportsPromiseCallbacks:     c.PromiseCallbacks,
		SupportsExternalArrayBuffers: c.ExternalArrayData,
	}
}
