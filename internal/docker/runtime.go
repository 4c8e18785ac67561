package docker

import (
	"context"
	"fmt"

	"github.com/sarth-shah20/berth/internal/config"
	"github.com/sarth-shah20/berth/internal/envfile"
)

// Runtime adapts Manager to the engine's runtime interface for one loaded
// descriptor. It owns the translation from declarations (relative paths,
// env file references, port strings) to concrete daemon calls.
type Runtime struct {
	Manager *Manager
	Config  *config.Config
}

// PrepareImage pulls the declared image, or builds one from the declared
// context. Built images are tagged berth-<project>-<service> so repeated
// builds replace the previous tag.
func (r *Runtime) PrepareImage(ctx context.Context, name string, svc config.Service) (string, error) {
	if svc.Build != nil {
		tag := fmt.Sprintf("berth-%s-%s", r.Config.Name, name)
		dockerfile := svc.Build.Dockerfile
		if dockerfile == "" {
			dockerfile = "Dockerfile"
		}
		contextDir := r.Config.Resolve(svc.Build.Context)
		if err := r.Manager.BuildImage(ctx, contextDir, dockerfile, tag); err != nil {
			return "", err
		}
		return tag, nil
	}

	if err := r.Manager.PullImage(ctx, svc.Image); err != nil {
		return "", err
	}
	return svc.Image, nil
}

// StartService resolves the service's env file and volume declarations and
// starts its container on the project network.
func (r *Runtime) StartService(ctx context.Context, name, image string, svc config.Service) error {
	var env []string
	if svc.EnvFile != "" {
		loaded, err := envfile.Load(r.Config.Resolve(svc.EnvFile))
		if err != nil {
			return err
		}
		env = loaded
	}

	binds := make([]string, 0, len(svc.Volumes))
	for _, v := range svc.Volumes {
		mount, err := config.ParseVolume(v)
		if err != nil {
			return err
		}
		binds = append(binds, mount.Bind(r.Config.Dir))
	}

	return r.Manager.StartContainer(ctx, StartOptions{
		Project: r.Config.Name,
		Service: name,
		Image:   image,
		Network: NetworkName(r.Config.Name),
		Ports:   svc.Ports,
		Env:     env,
		Binds:   binds,
	})
}

// StopService stops and removes the service's container.
func (r *Runtime) StopService(ctx context.Context, name string) error {
	return r.Manager.StopAndRemoveContainer(ctx, r.Config.Name, name)
}
