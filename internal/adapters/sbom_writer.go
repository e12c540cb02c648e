package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

const DefaultSBOMNamespace = "https://spdx.org/spdxdocs/analyzer-plugin-generator"

// SBOMWriterAdapter writes an SPDX 2.3 JSON document describing every
// package in a dependency closure and the edges between them.
type SBOMWriterAdapter struct {
	NamespaceBase string
}

func NewSBOMWriterAdapter() SBOMWriterAdapter {
	return SBOMWriterAdapter{NamespaceBase: DefaultSBOMNamespace}
}

type spdxCreationInfo struct {
	Created  string   `json:"created"`
	Creators []string `json:"creators"`
}

type spdxExternalRef struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

type spdxPackage struct {
	SPDXID           string            `json:"SPDXID"`
	Name             string            `json:"name"`
	VersionInfo      string            `json:"versionInfo"`
	DownloadLocation string            `json:"downloadLocation"`
	LicenseConcluded string            `json:"licenseConcluded"`
	LicenseDeclared  string            `json:"licenseDeclared"`
	Supplier         string            `json:"supplier"`
	Comment          string            `json:"comment,omitempty"`
	ExternalRefs     []spdxExternalRef `json:"externalRefs"`
}

type spdxRelationship struct {
	SpdxElementID      string `json:"spdxElementId"`
	RelationshipType   string `json:"relationshipType"`
	RelatedSpdxElement string `json:"relatedSpdxElement"`
}

type spdxDocument struct {
	SPDXVersion       string             `json:"spdxVersion"`
	DataLicense       string             `json:"dataLicense"`
	SPDXID            string             `json:"SPDXID"`
	Name              string             `json:"name"`
	DocumentNamespace string             `json:"documentNamespace"`
	CreationInfo      spdxCreationInfo   `json:"creationInfo"`
	Packages          []spdxPackage      `json:"packages"`
	Relationships     []spdxRelationship `json:"relationships"`
	DocumentDescribes []string           `json:"documentDescribes"`
}

func (a SBOMWriterAdapter) WriteSBOM(path string, closure types.DependencyClosure, createdAt string) error {
	root := closure.Root
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("sbom path is empty")
	}
	if strings.TrimSpace(root.ID) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("sbom root package is empty")
	}
	ordered := closure.Sorted()

	created := strings.TrimSpace(createdAt)
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}
	rootID := spdxPackageID(root)
	doc := spdxDocument{
		SPDXVersion:       "SPDX-2.3",
		DataLicense:       "CC0-1.0",
		SPDXID:            "SPDXRef-DOCUMENT",
		Name:              fmt.Sprintf("%s %s dependency closure", root.ID, root.Version),
		DocumentNamespace: a.namespaceBase() + "/" + url.PathEscape(strings.ToLower(root.ID)+"-"+root.Version),
		CreationInfo: spdxCreationInfo{
			Created:  created,
			Creators: []string{"Tool: analyzer-plugin-generator"},
		},
		Packages:          []spdxPackage{},
		Relationships:     []spdxRelationship{},
		DocumentDescribes: []string{rootID},
	}
	doc.Relationships = append(doc.Relationships, spdxRelationship{
		SpdxElementID:      "SPDXRef-DOCUMENT",
		RelationshipType:   "DESCRIBES",
		RelatedSpdxElement: rootID,
	})

	for _, node := range ordered {
		pkg := spdxPackage{
			SPDXID:           spdxPackageID(node.Ref),
			Name:             node.Ref.ID,
			VersionInfo:      node.Ref.Version,
			DownloadLocation: "NOASSERTION",
			LicenseConcluded: "NOASSERTION",
			LicenseDeclared:  "NOASSERTION",
			Supplier:         "NOASSERTION",
			ExternalRefs: []spdxExternalRef{{
				ReferenceCategory: "PACKAGE-MANAGER",
				ReferenceType:     "purl",
				ReferenceLocator:  packageURL(node.Ref),
			}},
		}
		if node.LicenseRequired {
			pkg.Comment = "license acceptance required"
		}
		doc.Packages = append(doc.Packages, pkg)

		deps := append([]types.PackageRef(nil), node.Dependencies...)
		sort.Slice(deps, func(i, j int) bool { return deps[i].Key() < deps[j].Key() })
		for _, dep := range deps {
			if _, ok := closure.Lookup(dep); !ok {
				continue
			}
			doc.Relationships = append(doc.Relationships, spdxRelationship{
				SpdxElementID:      pkg.SPDXID,
				RelationshipType:   "DEPENDS_ON",
				RelatedSpdxElement: spdxPackageID(dep),
			})
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal sbom payload").
			WithCause(err)
	}
	return writeBytesAtomic(path, append(data, '\n'))
}

func (a SBOMWriterAdapter) namespaceBase() string {
	base := strings.TrimRight(strings.TrimSpace(a.NamespaceBase), "/")
	if base == "" {
		return DefaultSBOMNamespace
	}
	return base
}

// spdxPackageID is stable across runs and case variants of the same ref.
func spdxPackageID(ref types.PackageRef) string {
	hash := sha256.Sum256([]byte(ref.Key()))
	return "SPDXRef-Package-" + hex.EncodeToString(hash[:8])
}

func packageURL(ref types.PackageRef) string {
	return fmt.Sprintf("pkg:nuget/%s@%s", url.PathEscape(ref.ID), url.PathEscape(ref.Version))
}

var _ ports.SBOMPort = SBOMWriterAdapter{}
