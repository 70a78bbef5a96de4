package compositor

// OutputInfo describes one compositor output's logical pixel geometry, as
// reported by wl_output/xdg_output.
type OutputInfo struct {
	Name   string
	Width  int
	Height int
}

// OutputWatcher is implemented by a Compositor that can report the set of
// outputs it has discovered through registry/xdg_output events processed
// during Dispatch. It is a separate interface, not part of Compositor
// itself, so test doubles that never need output hotplug (bumppool's and
// wallpaper's fakes) aren't forced to implement it; murald type-asserts
// for it on its real connection.
type OutputWatcher interface {
	// Outputs returns the currently known outputs, in no particular order.
	Outputs() []OutputInfo
}

// Outputs returns whatever outputs Connect's registry walk has recorded.
// Like layer-shell surfaces (see NewSurface), wl_output/xdg_output aren't
// part of this binding's generated protocol set today — Connect's
// Registry.OnGlobal callback only recognizes wl_compositor, wl_shm, and
// xdg_wm_base — so c.outputs stays empty until the same wayland-scanner-
// style codegen run that produced this binding is pointed at wl_output.xml
// and xdg-output.xml; the OutputWatcher call sites below need no change
// when that happens.
func (c *waylandCompositor) Outputs() []OutputInfo {
	out := make([]OutputInfo, 0, len(c.outputs))
	for _, o := range c.outputs {
		out = append(out, o)
	}
	return out
}
