package mockapi

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Fault modes for resilience testing
const (
	ModeNormal      = "normal"
	ModeServerError = "server_error" // answer 500 with probability ErrorRate
	ModeUnavailable = "unavailable"  // answer 404 everywhere, as if the API were not deployed
)

// FaultConfig controls injected failures
type FaultConfig struct {
	Mode      string  `json:"mode"`
	ErrorRate float64 `json:"error_rate,omitempty"`
}

// Faults is the mutable fault state of one server
type Faults struct {
	mu  sync.RWMutex
	cfg FaultConfig
}

func newFaults() *Faults {
	return &Faults{cfg: FaultConfig{Mode: ModeNormal}}
}

// Get returns the current configuration
func (f *Faults) Get() FaultConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

// Set replaces the configuration
func (f *Faults) Set(cfg FaultConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg.Mode == "" {
		cfg.Mode = ModeNormal
	}
	if cfg.ErrorRate < 0 || cfg.ErrorRate > 1 {
		cfg.ErrorRate = 1
	}
	f.cfg = cfg
}

// middleware applies the configured fault to every non-admin, non-health route
func (f *Faults) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/admin") || path == "/health" {
			c.Next()
			return
		}

		cfg := f.Get()
		switch cfg.Mode {
		case ModeUnavailable:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		case ModeServerError:
			if rand.Float64() < cfg.ErrorRate {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error (simulated)",
					"code":  "INTERNAL_SERVER_ERROR",
				})
				return
			}
		}
		c.Next()
	}
}
