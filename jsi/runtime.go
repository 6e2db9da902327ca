package jsi

// ScopeState is returned by PushScope and must be handed back to PopScope.
type ScopeState struct {
	Depth int
}

// Runtime is the engine-agnostic scripting interface. A Runtime is bound
// to the goroutine that created it; every method must be called there.
//
// Methods returning pointer kinds hand ownership to the caller. Arguments
// are borrowed.
type Runtime interface {
	EvaluateScript(buf Buffer, sourceURL string) (Value, error)
	PrepareScript(buf Buffer, sourceURL string) (*PreparedScript, error)
	EvaluatePrepared(p *PreparedScript) (Value, error)
	Global() Object
	Description() string
	IsInspectable() bool

	CreatePropNameIDFromASCII(s string) PropNameID
	CreatePropNameIDFromUTF8(b []byte) PropNameID
	CreatePropNameIDFromString(s String) PropNameID
	PropNameUTF8(id PropNameID) string
	ComparePropNames(a, b PropNameID) bool

	CreateString(s string) String
	StringUTF8(s String) string
	SymbolToString(s Symbol) string
	ToString(v Value) (string, error)

	CreateObject() Object
	CreateHostObject(h HostObject) (Object, error)
	GetHostObject(o Object) (HostObject, error)
	IsHostObject(o Object) bool
	GetHostFunction(f Function) (HostFunction, error)

	GetProperty(o Object, name PropNameID) (Value, error)
	HasProperty(o Object, name PropNameID) (bool, error)
	SetProperty(o Object, name PropNameID, v Value) error
	GetPropertyNames(o Object) (Array, error)

	IsArray(o Object) bool
	IsArrayBuffer(o Object) bool
	IsFunction(o Object) bool
	IsHostFunction(f Function) bool

	CreateWeakObject(o Object) WeakObject
	LockWeakObject(w WeakObject) Value

	CreateArray(length int) (Array, error)
	ArraySize(a Array) (int, error)
	ArrayBufferSize(b ArrayBuffer) (int, error)
	ArrayBufferData(b ArrayBuffer) ([]byte, error)
	GetValueAtIndex(a Array, i int) (Value, error)
	SetValueAtIndex(a Array, i int, v Value) error

	CreateFunctionFromHostFunction(name PropNameID, paramCount int, fn HostFunction) (Function, error)
	Call(f Function, this Value, args ...Value) (Value, error)
	CallAsConstructor(f Function, args ...Value) (Value, error)

	PushScope() *ScopeState
	PopScope(s *ScopeState)

	StrictEqualsSymbol(a, b Symbol) bool
	StrictEqualsString(a, b String) bool
	StrictEqualsObject(a, b Object) bool
	InstanceOf(o Object, f Function) (bool, error)
}
