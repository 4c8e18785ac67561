package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// Manager handles all interactions with the Docker daemon.
type Manager struct {
	cli *client.Client

	// Progress receives the daemon's pull/build progress stream. Defaults
	// to io.Discard; the CLI points it at stderr when --verbose is set.
	Progress io.Writer
}

// NewManager creates a Docker client connected to the local daemon.
// FromEnv honors DOCKER_HOST and friends, falling back to the unix socket.
func NewManager() (*Manager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Manager{cli: cli, Progress: io.Discard}, nil
}

// ContainerName returns the canonical container name for a service.
func ContainerName(project, service string) string {
	return fmt.Sprintf("berth-%s-%s", project, service)
}

// NetworkName returns the canonical network name for a project.
func NetworkName(project string) string {
	return fmt.Sprintf("berth-%s", project)
}

// PullImage pulls an image if the daemon doesn't already have it.
func (m *Manager) PullImage(ctx context.Context, ref string) error {
	if _, _, err := m.cli.ImageInspectWithRaw(ctx, ref); err == nil {
		return nil // already present
	}

	rc, err := m.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer rc.Close()

	// The pull isn't finished until the progress stream is fully read;
	// jsonmessage also surfaces errors the daemon reports mid-stream.
	if err := jsonmessage.DisplayJSONMessagesStream(rc, m.Progress, 0, false, nil); err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	return nil
}

// BuildImage builds an image from a local context directory and tags it.
// dockerfile is a path relative to the context.
func (m *Manager) BuildImage(ctx context.Context, contextDir, dockerfile, tag string) error {
	buildCtx, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("tar build context %s: %w", contextDir, err)
	}
	defer buildCtx.Close()

	resp, err := m.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: dockerfile,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build image %s: %w", tag, err)
	}
	defer resp.Body.Close()

	// Build failures arrive inside the JSON stream, not as an API error.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, m.Progress, 0, false, nil); err != nil {
		return fmt.Errorf("build image %s: %w", tag, err)
	}
	return nil
}

// EnsureNetwork creates the project's bridge network if it doesn't exist.
// Containers on it reach each other by service name via network aliases.
func (m *Manager) EnsureNetwork(ctx context.Context, networkName string) error {
	networks, err := m.cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: filters.NewArgs(filters.Arg("name", networkName)),
	})
	if err != nil {
		return fmt.Errorf("list networks: %w", err)
	}
	for _, net := range networks {
		if net.Name == networkName {
			return nil
		}
	}

	_, err = m.cli.NetworkCreate(ctx, networkName, types.NetworkCreate{Driver: "bridge"})
	if err != nil {
		return fmt.Errorf("create network %s: %w", networkName, err)
	}
	return nil
}

// RemoveNetwork deletes the project network.
func (m *Manager) RemoveNetwork(ctx context.Context, networkName string) error {
	return m.cli.NetworkRemove(ctx, networkName)
}

// StartOptions describes the container to create and start for a service.
type StartOptions struct {
	Project string
	Service string
	Image   string
	Network string
	Ports   []string // "host:container" declarations, parsed by nat
	Env     []string // KEY=VALUE pairs
	Binds   []string // absolute host:container[:mode] bind strings
}

// StartContainer creates and starts the container for a service. Any stale
// container with the same name is removed first, so a repeated `up`
// replaces rather than collides. Returning nil means the container process
// has started — the only readiness signal the descriptor supports.
func (m *Manager) StartContainer(ctx context.Context, opts StartOptions) error {
	containerName := ContainerName(opts.Project, opts.Service)

	portBindings := nat.PortMap{}
	exposedPorts := nat.PortSet{}
	for _, spec := range opts.Ports {
		mappings, err := nat.ParsePortSpec(spec)
		if err != nil {
			return fmt.Errorf("invalid port mapping %s: %w", spec, err)
		}
		for _, pm := range mappings {
			exposedPorts[pm.Port] = struct{}{}
			portBindings[pm.Port] = append(portBindings[pm.Port], nat.PortBinding{
				HostIP:   "0.0.0.0",
				HostPort: pm.Binding.HostPort,
			})
		}
	}

	config := &container.Config{
		Image:        opts.Image,
		ExposedPorts: exposedPorts,
		Env:          opts.Env,
		Labels: map[string]string{
			"berth.project": opts.Project,
			"berth.service": opts.Service,
			"berth.managed": "true",
		},
	}
	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Binds:        opts.Binds,
	}
	networkConfig := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			opts.Network: {Aliases: []string{opts.Service}},
		},
	}

	// Leftovers from a previous run would make the create fail on the
	// name; ignore the error because the container usually doesn't exist.
	_ = m.cli.ContainerRemove(ctx, containerName, container.RemoveOptions{Force: true})

	resp, err := m.cli.ContainerCreate(ctx, config, hostConfig, networkConfig, nil, containerName)
	if err != nil {
		return fmt.Errorf("create container %s: %w", containerName, err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", containerName, err)
	}
	return nil
}

// ListContainers returns all containers belonging to a project, running
// or not.
func (m *Manager) ListContainers(ctx context.Context, project string) ([]types.Container, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("label", fmt.Sprintf("berth.project=%s", project))

	return m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
}

// StopAndRemoveContainer stops and deletes a service's container. A stop
// failure is tolerated (the container may already be gone); a remove
// failure is not.
func (m *Manager) StopAndRemoveContainer(ctx context.Context, project, service string) error {
	containerName := ContainerName(project, service)

	if err := m.cli.ContainerStop(ctx, containerName, container.StopOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		// Might be stopped already; removal below is what matters.
	}

	if err := m.cli.ContainerRemove(ctx, containerName, container.RemoveOptions{
		RemoveVolumes: false, // keep the data
		Force:         true,
	}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove container %s: %w", containerName, err)
	}
	return nil
}

// StreamLogs copies a service container's output to out, demultiplexing
// the daemon's stdout/stderr framing. Blocks until the stream ends or ctx
// is cancelled when follow is set.
func (m *Manager) StreamLogs(ctx context.Context, project, service string, follow bool, out, errOut io.Writer) error {
	containerName := ContainerName(project, service)

	rc, err := m.cli.ContainerLogs(ctx, containerName, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
	})
	if err != nil {
		return fmt.Errorf("logs for %s: %w", containerName, err)
	}
	defer rc.Close()

	if _, err := stdcopy.StdCopy(out, errOut, rc); err != nil && ctx.Err() == nil {
		return fmt.Errorf("logs for %s: %w", containerName, err)
	}
	return nil
}
