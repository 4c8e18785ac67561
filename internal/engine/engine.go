// Package engine brings the services of a descriptor up and down on a
// container runtime, honoring depends_on ordering.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sarth-shah20/berth/internal/config"
	"github.com/sarth-shah20/berth/internal/ctxlog"
	"github.com/sarth-shah20/berth/internal/graph"
)

// Runtime abstracts the container engine. The engine only sequences; all
// engine-specific work (pulling, building, creating containers) lives
// behind this interface, which also keeps the ordering semantics testable
// without a daemon.
type Runtime interface {
	// PrepareImage makes the service's image available locally (pull or
	// build) and returns the reference to run.
	PrepareImage(ctx context.Context, name string, svc config.Service) (string, error)

	// StartService creates and starts the service's container. Returning
	// nil means the container process has been started; that is the only
	// readiness signal depends_on provides. The descriptor declares no
	// health checks, so a dependent may start before its dependency is
	// functionally ready.
	StartService(ctx context.Context, name, image string, svc config.Service) error

	// StopService stops and removes the service's container.
	StopService(ctx context.Context, name string) error
}

// Engine executes bring-up and teardown for one descriptor.
type Engine struct {
	Config  *config.Config
	Runtime Runtime

	// Workers caps how many services start concurrently. Zero means one
	// worker per service (full concurrency between independent services).
	Workers int
}

// Up brings all services up in two phases, the way an orchestration run
// naturally splits:
//
//  1. Image phase: every service's image is resolved in parallel. A single
//     failure cancels the rest — there is no point starting containers when
//     part of the environment cannot exist.
//  2. Start phase: services start concurrently, but a service's start is
//     issued only after every service it depends_on has started. On the
//     first failure the remaining starts are cancelled and all transitive
//     dependents are skipped; the root cause is returned.
func (e *Engine) Up(ctx context.Context) error {
	g, err := config.BuildGraph(e.Config)
	if err != nil {
		return err
	}

	images, err := e.prepareImages(ctx)
	if err != nil {
		return err
	}

	return e.startServices(ctx, g, images)
}

// Down stops and removes all services in reverse dependency order, so a
// service is torn down before anything it depends on. Teardown keeps going
// past individual failures and reports them together.
func (e *Engine) Down(ctx context.Context) error {
	g, err := config.BuildGraph(e.Config)
	if err != nil {
		return err
	}
	order, err := g.Toposort()
	if err != nil {
		return err
	}

	logger := ctxlog.FromContext(ctx)

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		logger.Debug("stopping service", "service", name)
		if err := e.Runtime.StopService(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("service %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// prepareImages resolves every service's image in parallel and returns
// service name → image reference.
func (e *Engine) prepareImages(ctx context.Context) (map[string]string, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		images = make(map[string]string, len(e.Config.Services))
		first  error
		wg     sync.WaitGroup
	)

	for _, name := range e.Config.OrderedNames() {
		svc := e.Config.Services[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Debug("preparing image", "service", name)
			ref, err := e.Runtime.PrepareImage(ctx, name, svc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Only the first failure is the root cause; the rest
				// fail from the cancelled context.
				if first == nil && ctx.Err() == nil {
					first = fmt.Errorf("service %q: prepare image: %w", name, err)
					cancel()
				} else if first == nil {
					first = fmt.Errorf("service %q: prepare image: %w", name, err)
				}
				return
			}
			images[name] = ref
		}()
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	return images, nil
}

// startNode tracks one service through the start phase.
type startNode struct {
	name       string
	svc        config.Service
	image      string
	dependents []*startNode
	pending    int32 // unstarted dependencies, decremented under mu
	failed     bool
	err        error
	settled    bool // start finished, failed, or skipped; wg counted down
}

// startServices runs the dependency-ordered start phase: a pool of workers
// drains a ready channel, and finishing a service unlocks the dependents
// whose last dependency it was.
func (e *Engine) startServices(ctx context.Context, g *graph.Graph, images map[string]string) error {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	names := e.Config.OrderedNames()

	nodes := make(map[string]*startNode, len(names))
	for _, name := range names {
		nodes[name] = &startNode{
			name:  name,
			svc:   e.Config.Services[name],
			image: images[name],
		}
	}
	for _, name := range names {
		n := nodes[name]
		deps := g.Deps(name)
		n.pending = int32(len(deps))
		for _, dep := range g.Dependents(name) {
			n.dependents = append(n.dependents, nodes[dep])
		}
	}

	// Buffered to the node count so workers never block on handoff.
	ready := make(chan *startNode, len(names))
	for _, name := range names {
		if nodes[name].pending == 0 {
			ready <- nodes[name]
		}
	}

	var (
		mu    sync.Mutex // guards pending counts and settle bookkeeping
		wg    sync.WaitGroup
		cause error
	)
	wg.Add(len(names))

	// settle marks a node finished exactly once. Must hold mu.
	settle := func(n *startNode, err error) {
		if n.settled {
			return
		}
		n.settled = true
		if err != nil {
			n.failed = true
			n.err = err
		}
		wg.Done()
	}

	// skipDependents marks everything downstream of n as failed without
	// starting it. Must hold mu.
	var skipDependents func(n *startNode)
	skipDependents = func(n *startNode) {
		for _, d := range n.dependents {
			if d.settled {
				continue
			}
			logger.Warn("skipping service: dependency failed", "service", d.name, "dependency", n.name)
			settle(d, fmt.Errorf("skipped: dependency %q failed", n.name))
			skipDependents(d)
		}
	}

	workers := e.Workers
	if workers <= 0 || workers > len(names) {
		workers = len(names)
	}

	for i := 0; i < workers; i++ {
		go func() {
			for n := range ready {
				if ctx.Err() != nil {
					mu.Lock()
					settle(n, ctx.Err())
					skipDependents(n)
					mu.Unlock()
					continue
				}

				logger.Debug("starting service", "service", n.name, "image", n.image)
				err := e.Runtime.StartService(ctx, n.name, n.image, n.svc)

				mu.Lock()
				if err != nil {
					if cause == nil {
						cause = fmt.Errorf("service %q: %w", n.name, err)
					}
					settle(n, err)
					skipDependents(n)
					mu.Unlock()
					cancel() // tear down the start phase
					continue
				}

				settle(n, nil)
				for _, d := range n.dependents {
					d.pending--
					if d.pending == 0 && !d.settled {
						ready <- d
					}
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	close(ready)

	if cause != nil {
		return cause
	}
	// A cancelled context with no service failure (e.g. interrupt) still
	// has to surface.
	if err := ctx.Err(); err != nil {
		for _, n := range nodes {
			if n.failed {
				return n.err
			}
		}
		return err
	}
	return nil
}
