package core

import (
	"context"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

const defaultResolverWorkers = 4

// ClosureResolver walks the transitive dependencies of a root package and
// downloads every distinct package exactly once.
type ClosureResolver struct {
	Repository ports.PackageRepositoryPort
	Workers    int
}

func NewClosureResolver(repository ports.PackageRepositoryPort, workers int) ClosureResolver {
	if workers <= 0 {
		workers = defaultResolverWorkers
	}
	return ClosureResolver{
		Repository: repository,
		Workers:    workers,
	}
}

// Resolve returns the dependency closure of root. Payloads are written to
// downloadDir. The first fetch failure aborts the walk and is returned as a
// *FetchError; a partial closure is never returned.
func (r ClosureResolver) Resolve(ctx context.Context, root types.PackageRef, downloadDir string) (types.DependencyClosure, error) {
	if r.Repository == nil {
		return types.DependencyClosure{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("closure resolver requires a package repository")
	}
	workers := r.Workers
	if workers <= 0 {
		workers = defaultResolverWorkers
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	walk := &closureWalk{
		ctx:         walkCtx,
		cancel:      cancel,
		repository:  r.Repository,
		downloadDir: downloadDir,
		slots:       make(chan struct{}, workers),
		visited:     map[string]struct{}{},
		closure:     types.NewDependencyClosure(root),
	}
	walk.visit(root)
	walk.wg.Wait()

	if walk.err != nil {
		return types.DependencyClosure{}, walk.err
	}
	if err := ctx.Err(); err != nil {
		return types.DependencyClosure{}, err
	}
	log.Ctx(ctx).Debug().
		Str("root", root.String()).
		Int("packages", walk.closure.Len()).
		Msg("dependency closure resolved")
	return walk.closure, nil
}

type closureWalk struct {
	ctx         context.Context
	cancel      context.CancelFunc
	repository  ports.PackageRepositoryPort
	downloadDir string
	slots       chan struct{}
	wg          sync.WaitGroup

	mu      sync.Mutex
	visited map[string]struct{}
	closure types.DependencyClosure

	errOnce sync.Once
	err     error
}

// visit schedules a fetch of ref unless it was already scheduled. The
// visited set is updated before the fetch is dispatched so concurrent
// walkers never fetch the same package twice.
func (w *closureWalk) visit(ref types.PackageRef) {
	key := ref.Key()
	w.mu.Lock()
	if _, seen := w.visited[key]; seen {
		w.mu.Unlock()
		return
	}
	w.visited[key] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case w.slots <- struct{}{}:
		case <-w.ctx.Done():
			return
		}
		node, err := w.fetch(ref)
		<-w.slots
		if err != nil {
			w.fail(ref, err)
			return
		}

		w.mu.Lock()
		w.closure.Nodes[key] = node
		w.mu.Unlock()

		for _, dep := range node.Dependencies {
			w.visit(dep)
		}
	}()
}

func (w *closureWalk) fetch(ref types.PackageRef) (types.PackageNode, error) {
	if err := w.ctx.Err(); err != nil {
		return types.PackageNode{}, err
	}
	metadata, err := w.repository.GetMetadata(w.ctx, ref)
	if err != nil {
		return types.PackageNode{}, err
	}
	payload, err := w.repository.DownloadPayload(w.ctx, ref, w.downloadDir)
	if err != nil {
		return types.PackageNode{}, err
	}
	log.Ctx(w.ctx).Debug().
		Str("package", ref.String()).
		Bool("license_required", metadata.LicenseRequired).
		Int("dependencies", len(metadata.Dependencies)).
		Msg("package fetched")
	return types.PackageNode{
		Ref:             ref,
		LicenseRequired: metadata.LicenseRequired,
		Dependencies:    append([]types.PackageRef(nil), metadata.Dependencies...),
		PayloadPath:     payload,
	}, nil
}

// fail keeps the first failure to complete and cancels the remaining
// fetches. Errors caused by that cancellation are dropped.
func (w *closureWalk) fail(ref types.PackageRef, err error) {
	w.errOnce.Do(func() {
		w.err = &FetchError{Ref: ref, Err: err}
		w.cancel()
	})
}
