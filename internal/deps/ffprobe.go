package deps

import "strings"

// DefaultFFprobe is looked up on PATH when no binary is configured.
const DefaultFFprobe = "ffprobe"

// FFprobe describes the ffprobe binary the probe phase executes.
func FFprobe(configured string) Requirement {
	binary := strings.TrimSpace(configured)
	if binary == "" {
		binary = DefaultFFprobe
	}
	return Requirement{
		Name:        "FFprobe",
		Command:     binary,
		Description: "Required for media metadata and source timecode",
	}
}

// CheckFFprobe reports whether the configured ffprobe can be executed.
func CheckFFprobe(configured string) Status {
	return CheckBinaries([]Requirement{FFprobe(configured)})[0]
}
