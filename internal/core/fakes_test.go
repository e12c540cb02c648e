package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/types"
)

type fakePackage struct {
	ref     types.PackageRef
	license bool
	deps    []types.PackageRef
}

// fakeRepository is an in-memory package graph that counts every call.
type fakeRepository struct {
	mu            sync.Mutex
	packages      map[string]fakePackage
	metadataCalls map[string]int
	downloadCalls map[string]int
	downloadErrs  map[string]error

	// Downloads of packages in blockDownloads wait for cancellation.
	// Metadata lookups of packages in holdMetadata wait until one of
	// those downloads has started.
	blockDownloads map[string]bool
	holdMetadata   map[string]bool
	blockedStarted chan struct{}
	startOnce      sync.Once
	cancelled      map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		packages:       map[string]fakePackage{},
		metadataCalls:  map[string]int{},
		downloadCalls:  map[string]int{},
		downloadErrs:   map[string]error{},
		blockDownloads: map[string]bool{},
		holdMetadata:   map[string]bool{},
		blockedStarted: make(chan struct{}),
		cancelled:      map[string]int{},
	}
}

func (f *fakeRepository) add(id string, version string, license bool, deps ...types.PackageRef) types.PackageRef {
	ref := types.NewPackageRef(id, version)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packages[ref.Key()] = fakePackage{ref: ref, license: license, deps: deps}
	return ref
}

func (f *fakeRepository) GetMetadata(ctx context.Context, ref types.PackageRef) (types.PackageMetadata, error) {
	f.mu.Lock()
	hold := f.holdMetadata[ref.Key()]
	f.mu.Unlock()
	if hold {
		select {
		case <-f.blockedStarted:
		case <-ctx.Done():
			return types.PackageMetadata{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataCalls[ref.Key()]++
	pkg, ok := f.packages[ref.Key()]
	if !ok {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s not found", ref))
	}
	return types.PackageMetadata{
		Ref:             pkg.ref,
		LicenseRequired: pkg.license,
		Dependencies:    pkg.deps,
	}, nil
}

func (f *fakeRepository) DownloadPayload(ctx context.Context, ref types.PackageRef, destDir string) (string, error) {
	f.mu.Lock()
	f.downloadCalls[ref.Key()]++
	err, failing := f.downloadErrs[ref.Key()]
	block := f.blockDownloads[ref.Key()]
	f.mu.Unlock()
	if failing {
		return "", err
	}
	if block {
		f.startOnce.Do(func() { close(f.blockedStarted) })
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled[ref.Key()]++
		f.mu.Unlock()
		return "", ctx.Err()
	}
	return filepath.Join(destDir, ref.Key()+".nupkg"), nil
}

func (f *fakeRepository) cancelledCalls(ref types.PackageRef) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled[ref.Key()]
}

func (f *fakeRepository) totalMetadataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, count := range f.metadataCalls {
		total += count
	}
	return total
}

// fakeInspector reports one analyzer for every package listed in withAnalyzers.
type fakeInspector struct {
	withAnalyzers map[string]bool
	err           error
}

func (f fakeInspector) FindAnalyzers(ref types.PackageRef, payloadPath string, language string) ([]types.AnalyzerAssembly, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.withAnalyzers[ref.Key()] {
		return nil, nil
	}
	return []types.AnalyzerAssembly{{
		Package:   ref,
		Payload:   payloadPath,
		EntryPath: "analyzers/dotnet/" + language + "/" + ref.ID + ".dll",
		FileName:  ref.ID + ".dll",
	}}, nil
}

func keysOf(closure types.DependencyClosure) []string {
	keys := make([]string, 0, closure.Len())
	for _, node := range closure.Sorted() {
		keys = append(keys, node.Ref.Key())
	}
	return keys
}
