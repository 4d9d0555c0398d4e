// Package loader provides the plugin-like feature loading system.
//
// Each feature implements Feature and is registered with a Manager.
// LoadAll mounts the routes of every enabled feature on the Fiber app.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
