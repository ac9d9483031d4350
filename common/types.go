// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Rect is an integer rectangle in window pixels. It describes viewports, client areas and blit regions.
type Rect struct {
	// X is the left edge in pixels.
	X int
	// Y is the bottom edge in pixels (OpenGL window coordinates).
	Y int
	// Width is the horizontal extent in pixels.
	Width int
	// Height is the vertical extent in pixels.
	Height int
}

// Empty reports whether the rectangle has no area. Minimized windows report an empty client rect.
//
// Returns:
//   - bool: true if width or height is zero or negative
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width int
	// Height is the height of the texture in pixels.
	Height int
}
