// Package port picks the listen port for the mock API server.
//
// An explicit --port wins, then the PORT variable set by container
// platforms, then the configured port. Locally a busy configured port is
// not fatal: the next free port in a small window is used instead, so a
// second `pizzeria serve` does not collide with the first. In containers
// the configured port is used as is.
package port

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/itsneelabh/pizzeria/core"
)

// Window is how many ports after the configured one are tried locally
const Window = 10

// Environment is the detected deployment environment
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDocker     Environment = "docker"
	EnvKubernetes Environment = "kubernetes"
)

// Where a port came from
const (
	SourceFlag      = "flag"
	SourceEnv       = "env"
	SourceConfig    = "config"
	SourceContainer = "container"
	SourceAuto      = "auto-discovery"
	SourceOS        = "os-assigned"
)

// Decision is the chosen port and why
type Decision struct {
	Port        int
	Source      string
	Environment Environment
}

// Address is the listen address on all interfaces
func (d Decision) Address() string {
	return fmt.Sprintf(":%d", d.Port)
}

// URL is the address clients on this host use
func (d Decision) URL() string {
	return fmt.Sprintf("http://localhost:%d", d.Port)
}

// DetectEnvironment looks for Kubernetes and Docker markers
func DetectEnvironment() Environment {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" ||
		fileExists("/var/run/secrets/kubernetes.io/serviceaccount/token") {
		return EnvKubernetes
	}
	if os.Getenv("COMPOSE_PROJECT_NAME") != "" || fileExists("/.dockerenv") {
		return EnvDocker
	}
	return EnvLocal
}

// Resolve chooses the port. flagPort is zero when no flag was given.
func Resolve(flagPort, configPort int, logger core.Logger) Decision {
	return resolve(flagPort, configPort, DetectEnvironment(), core.OrNoOp(logger))
}

func resolve(flagPort, configPort int, env Environment, logger core.Logger) Decision {
	d := Decision{Environment: env}

	switch v := strings.TrimSpace(os.Getenv("PORT")); {
	case flagPort > 0:
		d.Port, d.Source = flagPort, SourceFlag
	case v != "" && v != "auto":
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			d.Port, d.Source = p, SourceEnv
			break
		}
		logger.Warn("Ignoring invalid PORT", map[string]interface{}{"value": v})
		fallthrough
	default:
		d = discover(configPort, env, v == "auto", logger)
	}

	logger.Info("Listen port chosen", map[string]interface{}{
		"port":        d.Port,
		"source":      d.Source,
		"environment": string(d.Environment),
	})
	return d
}

func discover(configPort int, env Environment, forceAuto bool, logger core.Logger) Decision {
	if env != EnvLocal && !forceAuto {
		return Decision{Port: configPort, Source: SourceContainer, Environment: env}
	}
	if Available(configPort) {
		return Decision{Port: configPort, Source: SourceConfig, Environment: env}
	}
	for p := configPort + 1; p <= configPort+Window && p <= 65535; p++ {
		if Available(p) {
			logger.Warn("Configured port busy, using next free port", map[string]interface{}{
				"configured": configPort,
				"port":       p,
			})
			return Decision{Port: p, Source: SourceAuto, Environment: env}
		}
	}

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		logger.Error("No free port found", map[string]interface{}{"error": err.Error()})
		return Decision{Port: configPort, Source: SourceConfig, Environment: env}
	}
	defer ln.Close()
	return Decision{Port: ln.Addr().(*net.TCPAddr).Port, Source: SourceOS, Environment: env}
}

// Available reports whether port can be bound on all interfaces right now
func Available(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
