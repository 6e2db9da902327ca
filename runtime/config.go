package runtime

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/scriptstore"
)

// ArgsFile is the serializable subset of RuntimeArgs.
//
//	jit: false
//	description: MyRuntime
//	debugging:
//	  enable: true
//	  port: 9229
//	  name: runtime1
//	  break_on_start: false
//	native_promises: true
//	memory_limit: 67108864
//	cache:
//	  dir: /var/cache/app
//	  scripts: ./bundle
//	  tag: v2
//	strict_handles: true
//	console: true
type ArgsFile struct {
	JIT            *bool         `yaml:"jit"`
	Description    string        `yaml:"description"`
	Debugging      DebuggingFile `yaml:"debugging"`
	NativePromises bool          `yaml:"native_promises"`
	MemoryLimit    uint64        `yaml:"memory_limit"`
	Cache          CacheFile     `yaml:"cache"`
	StrictHandles  bool          `yaml:"strict_handles"`
	Console        bool          `yaml:"console"`
}

// DebuggingFile configures the debugger endpoint.
type DebuggingFile struct {
	Enable       bool   `yaml:"enable"`
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	BreakOnStart bool   `yaml:"break_on_start"`
}

// CacheFile configures the prepared script cache. Scripts is the root
// that script versions are read from; it defaults to the working
// directory.
type CacheFile struct {
	Dir     string `yaml:"dir"`
	Scripts string `yaml:"scripts"`
	Tag     string `yaml:"tag"`
}

// LoadArgs reads a YAML file and applies it over DefaultArgs.
func LoadArgs(path string) (RuntimeArgs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeArgs{}, errors.Config("read "+path, err)
	}
	return ParseArgs(data)
}

// ParseArgs decodes a YAML document and applies it over DefaultArgs.
func ParseArgs(data []byte) (RuntimeArgs, error) {
	var f ArgsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RuntimeArgs{}, errors.Config("parse runtime args", err)
	}
	return f.Apply(DefaultArgs())
}

// Apply overlays the file settings on a. Zero values leave a unchanged.
func (f ArgsFile) Apply(a RuntimeArgs) (RuntimeArgs, error) {
	if f.JIT != nil {
		a.EnableJIT = *f.JIT
	}
	if f.Description != "" {
		a.Description = f.Description
	}

	if f.Debugging.Enable {
		a.EnableDebugging = true
	}
	if f.Debugging.Port != 0 {
		a.DebuggerPort = f.Debugging.Port
	}
	if f.Debugging.Name != "" {
		a.DebuggerName = f.Debugging.Name
	}
	if f.Debugging.BreakOnStart {
		a.DebuggerBreakOnStart = true
	}

	if f.NativePromises {
		a.EnableNativePromiseSupport = true
	}
	if f.MemoryLimit != 0 {
		a.MemoryLimit = f.MemoryLimit
	}
	if f.StrictHandles {
		a.StrictHandles = true
	}
	if f.Console {
		a.EnableConsole = true
	}

	if f.Cache.Tag != "" {
		a.CacheTag = f.Cache.Tag
	}
	if f.Cache.Dir != "" {
		store, err := scriptstore.NewFile(f.Cache.Dir)
		if err != nil {
			return RuntimeArgs{}, errors.Config("open cache directory", err)
		}
		a.PreparedScriptStore = store
		a.ScriptStore = scriptstore.FileVersions{Root: f.Cache.Scripts}
	}
	return a, nil
}
