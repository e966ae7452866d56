package variant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Extension is the file extension of persisted variants.
const Extension = ".assetvariant"

// nameSuffix is appended to an origin's name until the variant name is free.
const nameSuffix = " (Variant)"

// maxNameAttempts bounds the suffix loop against a namespace that never frees a name.
const maxNameAttempts = 64

// Artifact is the persisted form of a variant.
type Artifact struct {
	// Origin identifies the origin object. Empty means unresolved.
	Origin string `yaml:"origin" json:"origin"`

	// Patch is the serialized override store. Empty means no overrides.
	Patch string `yaml:"patch" json:"patch"`
}

// ArtifactReader loads persisted artifacts by variant identifier.
type ArtifactReader interface {
	ReadArtifact(ctx context.Context, id string) (Artifact, error)
}

// ArtifactWriter persists artifacts by variant identifier.
type ArtifactWriter interface {
	WriteArtifact(ctx context.Context, id string, a Artifact) error
}

// ArtifactStore reads and writes artifacts.
type ArtifactStore interface {
	ArtifactReader
	ArtifactWriter
}

// Namespace checks names for collisions and creates new artifacts.
type Namespace interface {
	// Exists reports whether path is taken.
	Exists(path string) bool

	// CreateArtifact persists a at path and returns the new variant's identifier.
	CreateArtifact(ctx context.Context, path string, a Artifact) (id string, err error)
}

// ErrNoFreeName is returned by Create when every candidate name is taken.
var ErrNoFreeName = errors.New("no free variant name")

// VariantPath returns the first free path for a variant of the asset at
// originPath: "<dir>/<name> (Variant).assetvariant", with " (Variant)"
// appended again while the candidate exists.
func VariantPath(originPath string, exists func(string) bool) (string, error) {
	base := strings.TrimSuffix(originPath, filepath.Ext(originPath))
	for range maxNameAttempts {
		base += nameSuffix
		candidate := base + Extension
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoFreeName, originPath)
}

// Create persists a new variant of the object identified by originID, whose
// asset lives at originPath. The variant starts with no overrides.
func Create(ctx context.Context, ns Namespace, originID, originPath string) (id, path string, err error) {
	if originID == "" {
		return "", "", errors.New("create variant: origin has no identifier")
	}
	path, err = VariantPath(originPath, ns.Exists)
	if err != nil {
		return "", "", err
	}
	id, err = ns.CreateArtifact(ctx, path, Artifact{Origin: originID})
	if err != nil {
		return "", "", fmt.Errorf("create variant %s: %w", path, err)
	}
	return id, path, nil
}

// DisplayName returns the name a variant at path is shown under.
func DisplayName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
