package assetdb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/variant"
)

// AssetExtension is the file extension of plain assets.
const AssetExtension = ".asset"

// AssetFile is the on-disk form of a plain asset.
type AssetFile struct {
	GUID string `yaml:"guid"`
	Type string `yaml:"type"`
	// Name defaults to the file name without extension.
	Name   string         `yaml:"name,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// artifactFile is the on-disk form of a variant.
type artifactFile struct {
	GUID   string `yaml:"guid"`
	Origin string `yaml:"origin"`
	Patch  string `yaml:"patch,omitempty"`
}

func (f artifactFile) artifact() variant.Artifact {
	return variant.Artifact{Origin: f.Origin, Patch: f.Patch}
}

// fileKind classifies a path by extension.
func fileKind(path string) (string, bool) {
	switch filepath.Ext(path) {
	case AssetExtension:
		return AssetExtension, true
	case variant.Extension:
		return variant.Extension, true
	}
	return "", false
}

// ParseAssetFile decodes an asset file. Unknown keys are rejected.
func ParseAssetFile(data []byte) (*AssetFile, error) {
	var f AssetFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("parse asset: missing type")
	}
	return &f, nil
}

// Document returns the asset's field values as a document tree.
func (f *AssetFile) Document() (ir.Object, error) {
	if len(f.Fields) == 0 {
		return ir.Object{}, nil
	}
	v, err := ir.FromAny(f.Fields)
	if err != nil {
		return nil, fmt.Errorf("asset fields: %w", err)
	}
	return v.(ir.Object), nil
}

func parseArtifactFile(data []byte) (*artifactFile, error) {
	var f artifactFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse variant: %w", err)
	}
	return &f, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// WriteAssetFile writes f to path, replacing any existing file.
func WriteAssetFile(path string, f *AssetFile) ([]byte, error) {
	data, err := marshalYAML(f)
	if err != nil {
		return nil, fmt.Errorf("write asset %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write asset %s: %w", path, err)
	}
	return data, nil
}

func writeArtifactFile(path string, f *artifactFile) ([]byte, error) {
	data, err := marshalYAML(f)
	if err != nil {
		return nil, fmt.Errorf("write variant %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write variant %s: %w", path, err)
	}
	return data, nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// createFileExclusive writes data to path, failing if path exists.
func createFileExclusive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fingerprint(data []byte) string {
	return ir.FingerprintBytes(ir.DomainFile, data)
}
