package engine

import (
	"runtime/debug"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/dgryski/go-metro"
	"go.uber.org/zap"
)

const (
	engineModule   = "github.com/dop251/goja"
	develVersion   = "v0.0.0-devel"
	engineLabel    = "Goja"
	engineFullName = "GojaRuntime"
)

// EngineVersion identifies the engine build.
type EngineVersion struct {
	Semver *semver.Version
	Module string
	// Packed is major<<48 | minor<<32 | patch<<16 | a 16 bit hash of the
	// pre-release and build metadata.
	Packed uint64
}

func (v EngineVersion) String() string {
	return v.Semver.Original()
}

var (
	version     EngineVersion
	versionOnce sync.Once
)

// Version reports the goja version linked into the binary. It is probed
// once from the build info.
func Version() EngineVersion {
	versionOnce.Do(func() {
		version = probeVersion()
		Logger().Debug("engine version", zap.String("version", version.String()),
			zap.Uint64("packed", version.Packed))
	})
	return version
}

func probeVersion() EngineVersion {
	raw := develVersion
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path != engineModule {
				continue
			}
			if dep.Replace != nil && dep.Replace.Version != "" {
				dep = dep.Replace
			}
			if dep.Version != "" {
				raw = dep.Version
			}
			break
		}
	}

	sv, err := semver.NewVersion(raw)
	if err != nil {
		sv = semver.MustParse(develVersion)
	}
	return EngineVersion{Semver: sv, Module: engineModule, Packed: packVersion(sv)}
}

func packVersion(v *semver.Version) uint64 {
	tail := v.Prerelease() + "+" + v.Metadata()
	return (v.Major()&0xffff)<<48 |
		(v.Minor()&0xffff)<<32 |
		(v.Patch()&0xffff)<<16 |
		metro.Hash64Str(tail, 0)&0xffff
}

// Capabilities describes what this engine implementation supports.
type Capabilities struct {
	Name              string
	Label             string
	NativeProxy       bool
	WeakReferences    bool
	PreparedScripts   bool
	Inspector         bool
	PromiseCallbacks  bool
	ExternalArrayData bool
}

// EngineCapabilities returns the capabilities of the goja backend.
func EngineCapabilities() Capabilities {
	return Capabilities{
		Name:              engineFullName,
		Label:             engineLabel,
		NativeProxy:       true,
		WeakReferences:    true,
		PreparedScripts:   true,
		Inspector:         true,
		PromiseCallbacks:  true,
		ExternalArrayData: true,
	}
}
