package common

// Key is a keyboard key code as reported by the window. The values match GLFW key codes, which
// use the ASCII value for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
	Key9 Key = 57

	KeyA Key = 65
	KeyD Key = 68
	KeyE Key = 69
	KeyF Key = 70
	KeyG Key = 71
	KeyM Key = 77
	KeyQ Key = 81
	KeyR Key = 82
	KeyS Key = 83
	KeyW Key = 87

	KeyEsc       Key = 256
	KeyEnter     Key = 257
	KeyTab       Key = 258
	KeyBackspace Key = 259

	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)

// Digit returns the value of a number-row key.
//
// Returns:
//   - int: 0 through 9
//   - bool: false if k is not a digit key
func (k Key) Digit() (int, bool) {
	if k < Key0 || k > Key9 {
		return 0, false
	}
	return int(k - Key0), true
}
