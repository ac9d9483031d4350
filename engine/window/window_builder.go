package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size. The framebuffer may be larger on high-DPI displays.
//
// Parameters:
//   - width, height: the window size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithSizeLimits bounds interactive resizing. Pass glfw.DontCare (-1) to leave a bound open; the
// maximum is unbounded by default.
//
// Parameters:
//   - minWidth, minHeight: the smallest allowed size
//   - maxWidth, maxHeight: the largest allowed size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = minWidth
		w.minHeight = minHeight
		w.maxWidth = maxWidth
		w.maxHeight = maxHeight
	}
}

// WithVSync enables or disables waiting for the vertical blank on SwapBuffers. Enabled by default.
func WithVSync(enabled bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.vsync = enabled
	}
}

// WithContextVersion requests a core profile context of the given version, 4.1 by default. It must
// match the version directive the shaders are compiled with.
//
// Parameters:
//   - major, minor: the OpenGL version
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithContextVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.glMajor = major
		w.glMinor = minor
	}
}

// WithSamples sets the multisample count of the default framebuffer. Off-screen targets are never
// multisampled.
func WithSamples(samples int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.samples = max(samples, 0)
	}
}

// WithDebugContext requests a debug context. Defaults to on in builds tagged oxydebug.
func WithDebugContext(enabled bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.debugContext = enabled
	}
}
