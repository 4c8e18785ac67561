package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the root of berth.yaml.
type Config struct {
	Name     string             `mapstructure:"name" yaml:"name"`
	Version  string             `mapstructure:"version" yaml:"version,omitempty"`
	Services map[string]Service `mapstructure:"services" yaml:"services"` // keyed by service name (e.g. "db")

	// ServiceOrder holds service names in the order they appear in the
	// descriptor. Viper decodes services into a map, which loses ordering,
	// so the loader records it separately. Independent services start in
	// this order.
	ServiceOrder []string `mapstructure:"-" yaml:"-"`

	// Dir is the directory containing the descriptor. Relative paths in
	// the descriptor (env files, build contexts, volume sources) resolve
	// against it.
	Dir string `mapstructure:"-" yaml:"-"`
}

// Service is a single container declaration. A service names either a
// pre-built image or a build context, never both.
type Service struct {
	Image     string   `mapstructure:"image" yaml:"image,omitempty"`       // e.g. "postgres:12.13-alpine"
	Build     *Build   `mapstructure:"build" yaml:"build,omitempty"`       // build instead of pulling
	Ports     []string `mapstructure:"ports" yaml:"ports,omitempty"`       // e.g. ["5432:5432"]
	EnvFile   string   `mapstructure:"env_file" yaml:"env_file,omitempty"` // e.g. ".env"
	DependsOn []string `mapstructure:"depends_on" yaml:"depends_on,omitempty"`
	Volumes   []string `mapstructure:"volumes" yaml:"volumes,omitempty"` // e.g. ["./:/usr/src/app:z"]
}

// Build describes how to build a service image from local sources.
type Build struct {
	Context    string `mapstructure:"context" yaml:"context"`                 // build context directory
	Dockerfile string `mapstructure:"dockerfile" yaml:"dockerfile,omitempty"` // path relative to context
}

// PortMapping is a parsed "host:container" port declaration.
type PortMapping struct {
	HostPort      int
	ContainerPort int
	Protocol      string // "tcp" unless declared otherwise
}

// ParsePort parses a port declaration of the form "host:container" or
// "host:container/proto".
func ParsePort(s string) (PortMapping, error) {
	spec := s
	proto := "tcp"
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		proto = spec[i+1:]
		spec = spec[:i]
		if proto == "" {
			return PortMapping{}, fmt.Errorf("invalid port %q: empty protocol", s)
		}
	}

	host, container, ok := strings.Cut(spec, ":")
	if !ok {
		return PortMapping{}, fmt.Errorf("invalid port %q: expected host:container", s)
	}

	hp, err := strconv.Atoi(host)
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid port %q: host side: %w", s, err)
	}
	cp, err := strconv.Atoi(container)
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid port %q: container side: %w", s, err)
	}
	if hp < 1 || hp > 65535 || cp < 1 || cp > 65535 {
		return PortMapping{}, fmt.Errorf("invalid port %q: out of range", s)
	}

	return PortMapping{HostPort: hp, ContainerPort: cp, Protocol: proto}, nil
}

// VolumeMount is a parsed "source:target[:mode]" volume declaration.
type VolumeMount struct {
	Source string // host path, possibly relative to the descriptor dir
	Target string // absolute path inside the container
	Mode   string // e.g. "z", "ro"; empty if not declared
}

// ParseVolume parses a volume declaration of the form "source:target" or
// "source:target:mode".
func ParseVolume(s string) (VolumeMount, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return VolumeMount{}, fmt.Errorf("invalid volume %q: expected source:target[:mode]", s)
	}
	v := VolumeMount{Source: parts[0], Target: parts[1]}
	if len(parts) == 3 {
		v.Mode = parts[2]
	}
	if v.Source == "" || v.Target == "" {
		return VolumeMount{}, fmt.Errorf("invalid volume %q: empty source or target", s)
	}
	if !strings.HasPrefix(v.Target, "/") {
		return VolumeMount{}, fmt.Errorf("invalid volume %q: target must be absolute", s)
	}
	return v, nil
}

// Bind renders the mount as a Docker bind string, resolving a relative
// source against baseDir. The daemon rejects relative host paths, so this
// is where "./" becomes absolute.
func (v VolumeMount) Bind(baseDir string) string {
	src := v.Source
	if !filepath.IsAbs(src) {
		src = filepath.Join(baseDir, src)
	}
	bind := src + ":" + v.Target
	if v.Mode != "" {
		bind += ":" + v.Mode
	}
	return bind
}

// Resolve returns path resolved against the descriptor directory.
// Absolute paths are returned unchanged.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}
