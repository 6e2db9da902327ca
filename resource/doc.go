// Package resource provides reference-counted handle tables.
//
// Engine values handed across the native API boundary are identified by
// small integer handles. Each handle owns a reference count: the creator
// receives one reference, AddRef adds another, Release drops one, and the
// entry is freed when the last reference is released.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle with one reference
//	h := table.Insert(kindValue, v)
//
//	// Share it
//	table.AddRef(h)
//
//	// Each owner releases once
//	table.Release(h)
//	table.Release(h) // entry freed here
//
// # Kinds
//
// Every entry carries a Kind chosen by the caller, so a single table can
// hold values, property ids and weak references side by side:
//
//	v, ok := table.GetKind(h, kindPropertyID)
//
// # Observers
//
// Observers see creation, retain and final release:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventReleased {
//	        freed++
//	    }
//	}))
//
// Handle 0 is never issued. Freed handles are recycled, so a released
// handle must not be used again.
package resource
