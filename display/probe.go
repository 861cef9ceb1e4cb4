package display

import (
	"os"
	"runtime"
)

// Supported probes for a GPU-capable display without opening a window. On
// linux that means a running X or Wayland session; macOS and Windows always
// have one. Headless environments get false and run the software path.
func Supported() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	default:
		return false
	}
}
