// Package resource provides the Registry: named, cacheable value producers
// that tasks read through dependency injection.
//
// A resource is registered once, before a run starts:
//
//	reg := resource.NewRegistry()
//	reg.MustRegister(resource.New("battery", readBattery, resource.WithRefresh(2*time.Second)))
//
// Reads go through Resolve. A resource with a refresh interval d invokes its
// producer at most once per d; reads inside the window return the cached
// value unchanged. A zero interval means every read invokes the producer.
//
// Time is measured with a single Clock per Registry (monotonic by default),
// so tests can replace it and advance time deterministically.
//
// The Registry is not safe for concurrent use. It is designed for the
// single-threaded run loop, where reads happen strictly in tick order.
package resource
