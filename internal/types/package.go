package types

import (
	"fmt"
	"sort"
	"strings"

	"analyzer-plugin-generator/internal/semver"
)

// PackageRef identifies a package by id and version. Two refs denote the
// same package when their Keys match.
type PackageRef struct {
	ID      string
	Version string
}

func NewPackageRef(id string, version string) PackageRef {
	return PackageRef{ID: strings.TrimSpace(id), Version: strings.TrimSpace(version)}
}

// Key is the identity of the ref: package ids are case-insensitive and
// versions compare in canonical form.
func (r PackageRef) Key() string {
	return strings.ToLower(r.ID) + "@" + semver.Canonical(r.Version)
}

func (r PackageRef) String() string {
	return fmt.Sprintf("%s %s", r.ID, r.Version)
}

type PackageMetadata struct {
	Ref             PackageRef
	LicenseRequired bool
	Dependencies    []PackageRef
}

type PackageNode struct {
	Ref             PackageRef
	LicenseRequired bool
	Dependencies    []PackageRef
	PayloadPath     string
}

type DependencyClosure struct {
	Root  PackageRef
	Nodes map[string]PackageNode
}

func NewDependencyClosure(root PackageRef) DependencyClosure {
	return DependencyClosure{Root: root, Nodes: map[string]PackageNode{}}
}

func (c DependencyClosure) Lookup(ref PackageRef) (PackageNode, bool) {
	node, ok := c.Nodes[ref.Key()]
	return node, ok
}

func (c DependencyClosure) Len() int {
	return len(c.Nodes)
}

// Sorted returns the nodes ordered by identity key.
func (c DependencyClosure) Sorted() []PackageNode {
	keys := make([]string, 0, len(c.Nodes))
	for key := range c.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	nodes := make([]PackageNode, 0, len(keys))
	for _, key := range keys {
		nodes = append(nodes, c.Nodes[key])
	}
	return nodes
}

// AnalyzerAssembly is an analyzer file found inside a package archive.
type AnalyzerAssembly struct {
	Package   PackageRef
	Payload   string
	EntryPath string
	FileName  string
}
