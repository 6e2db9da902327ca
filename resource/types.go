package resource

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Kind tags what an entry holds. Tables do not interpret it.
type Kind uint8

// Event types for entry lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event represents an entry lifecycle event.
// EventReleased is only sent when the last reference goes away.
type Event struct {
	Value  any
	Handle Handle
	Refs   uint32
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about entry lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend provides the underlying storage mechanism for entries.
type Backend interface {
	// Create stores a value with a reference count of one.
	Create(kind Kind, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Retain increments the reference count and returns the new count.
	Retain(handle Handle) (uint32, bool)

	// Release decrements the reference count. When it reaches zero the entry
	// is freed and (value, 0, true) is returned.
	Release(handle Handle) (any, uint32, bool)

	// Close frees every entry held by the backend.
	Close() error
}

// Dropper is optionally implemented by values that need cleanup when their
// last reference is released.
type Dropper interface {
	Drop()
}
