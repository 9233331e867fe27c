package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the visualizer.
const (
	// Default values for the capture side
	DefaultDeviceID        = MinDeviceID // Auto-select by preferred kind
	DefaultPreferredKind   = "loopback"  // System sound first
	DefaultSampleRate      = 0           // Use the device default rate
	DefaultFramesPerBuffer = 1024        // One block per callback
	DefaultChannels        = 0           // min(2, device max input channels)
	DefaultLowLatency      = false       // Standard latency mode

	// Default values for the analysis stage
	DefaultWindow        = "rectangular" // Raw DFT, no window
	DefaultCeiling       = 10000.0       // Magnitude mapped to a full bar
	DefaultGateThreshold = 0.0           // Noise gate disabled

	// Default values for the render side
	DefaultBarCount       = 50
	DefaultRenderInterval = 30 * time.Millisecond // ~33 Hz
	DefaultRenderMode     = "tui"
	DefaultSensitivity    = 1.0

	// Default values for transports
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"

	// Default recording settings
	DefaultRecordingDir = "./recordings"
	DefaultBitDepth     = 16

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 selects a device automatically
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MinBufferFrames = 64     // Minimum frames per buffer
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxBarCount     = 512    // Matches the spectrum cell capacity
)

// Render modes.
const (
	ModeTUI      = "tui"
	ModeHeadless = "headless"
)

// Preferred device kinds for automatic selection.
const (
	KindLoopback   = "loopback"
	KindMicrophone = "microphone"
	KindAny        = "any"
)
