package core

import (
	"errors"
	"fmt"

	"analyzer-plugin-generator/internal/types"
)

var (
	// ErrNoAnalyzers indicates that no package in the dependency closure
	// contributes an analyzer assembly for the requested language.
	ErrNoAnalyzers = errors.New("no analyzers found in the dependency closure")
)

// FetchError reports the package whose metadata or payload could not be
// fetched while resolving a closure.
type FetchError struct {
	Ref types.PackageRef
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch package %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// InspectError reports the package whose payload could not be inspected
// for analyzer assemblies.
type InspectError struct {
	Ref types.PackageRef
	Err error
}

func (e *InspectError) Error() string {
	return fmt.Sprintf("failed to inspect package %s: %v", e.Ref, e.Err)
}

func (e *InspectError) Unwrap() error {
	return e.Err
}
