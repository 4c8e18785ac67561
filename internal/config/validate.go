package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarth-shah20/berth/internal/graph"
)

// Validate checks the loaded descriptor against every constraint we can
// verify without talking to the engine:
//
//   - at least one service is declared
//   - each service names an image XOR a build context
//   - every depends_on reference exists among declared services
//   - the dependency graph is acyclic
//   - host ports are unique across all services
//   - port and volume declarations parse
//   - declared env files and build dockerfiles exist on disk
//
// The first violation found is returned as a *Error.
func Validate(cfg *Config) error {
	if len(cfg.Services) == 0 {
		return &Error{Msg: "no services declared"}
	}

	hostPorts := make(map[int]string) // host port → owning service

	for _, name := range cfg.OrderedNames() {
		svc := cfg.Services[name]

		switch {
		case svc.Image != "" && svc.Build != nil:
			return &Error{Service: name, Msg: "image and build are mutually exclusive"}
		case svc.Image == "" && svc.Build == nil:
			return &Error{Service: name, Msg: "one of image or build is required"}
		}

		if svc.Build != nil {
			if err := validateBuild(cfg, name, svc.Build); err != nil {
				return err
			}
		}

		for _, p := range svc.Ports {
			pm, err := ParsePort(p)
			if err != nil {
				return &Error{Service: name, Field: "ports", Err: err}
			}
			if owner, taken := hostPorts[pm.HostPort]; taken {
				return &Error{
					Service: name,
					Field:   "ports",
					Msg:     fmt.Sprintf("host port %d already published by service %q", pm.HostPort, owner),
				}
			}
			hostPorts[pm.HostPort] = name
		}

		for _, v := range svc.Volumes {
			if _, err := ParseVolume(v); err != nil {
				return &Error{Service: name, Field: "volumes", Err: err}
			}
		}

		if svc.EnvFile != "" {
			path := cfg.Resolve(svc.EnvFile)
			if _, err := os.Stat(path); err != nil {
				return &Error{
					Service: name,
					Field:   "env_file",
					Msg:     fmt.Sprintf("env file %s not found", svc.EnvFile),
					Err:     err,
				}
			}
		}
	}

	// Dependency references and cycles are both checked by building the
	// graph: AddEdge rejects unknown names, Toposort rejects cycles.
	if _, err := BuildGraph(cfg); err != nil {
		return err
	}

	return nil
}

// BuildGraph constructs the service dependency graph from the descriptor.
// Edges point from a dependency to its dependents (db → backend means
// backend starts after db).
func BuildGraph(cfg *Config) (*graph.Graph, error) {
	g := graph.New()
	for _, name := range cfg.OrderedNames() {
		g.AddNode(name)
	}
	for _, name := range cfg.OrderedNames() {
		for _, dep := range cfg.Services[name].DependsOn {
			if err := g.AddEdge(dep, name); err != nil {
				return nil, &Error{Service: name, Field: "depends_on", Err: err}
			}
		}
	}
	if _, err := g.Toposort(); err != nil {
		return nil, &Error{Field: "depends_on", Err: err}
	}
	return g, nil
}

// OrderedNames returns service names in declaration order. Services missing
// from ServiceOrder (e.g. a Config assembled in tests without the loader)
// are appended in map order at the end.
func (c *Config) OrderedNames() []string {
	seen := make(map[string]bool, len(c.Services))
	names := make([]string, 0, len(c.Services))
	for _, name := range c.ServiceOrder {
		if _, ok := c.Services[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	for name := range c.Services {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

func validateBuild(cfg *Config, name string, b *Build) error {
	if b.Context == "" {
		return &Error{Service: name, Field: "build", Msg: "context is required"}
	}
	ctxDir := cfg.Resolve(b.Context)
	if info, err := os.Stat(ctxDir); err != nil || !info.IsDir() {
		return &Error{
			Service: name,
			Field:   "build",
			Msg:     fmt.Sprintf("context %s is not a directory", b.Context),
		}
	}
	dockerfile := b.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	if _, err := os.Stat(filepath.Join(ctxDir, dockerfile)); err != nil {
		return &Error{
			Service: name,
			Field:   "build",
			Msg:     fmt.Sprintf("dockerfile %s not found in context %s", dockerfile, b.Context),
			Err:     err,
		}
	}
	return nil
}
