package config

import "sync"

// RenderSettings holds settings that may change while the viewer runs
type RenderSettings struct {
	mu       sync.RWMutex
	fpsLimit int // 0 = unlimited
}

const MaxFPSLimit = 1000

var globalRenderSettings = &RenderSettings{
	fpsLimit: 0,
}

// GetFPSLimit returns the frame rate cap, 0 when uncapped
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the frame rate cap
func SetFPSLimit(limit int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()

	// Clamp to reasonable values
	if limit < 0 {
		limit = 0
	}
	if limit > MaxFPSLimit {
		limit = MaxFPSLimit
	}

	globalRenderSettings.fpsLimit = limit
}
