package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/assetvariant/internal/schema"
)

// EnemySchema declares the types used across package tests.
const EnemySchema = `package project

types: Enemy: {
	speed: "float"
	label: "string"
	stats: {hp: "int", armor: "int"}
	tint:  "color"
	drop:  "object"
	waypoints: ["vector3"]
}

types: Spawner: {
	enemy: "object"
	rate:  "float"
}
`

// Registry compiles EnemySchema.
func Registry(t testing.TB) *schema.Registry {
	t.Helper()
	r, err := schema.CompileString(EnemySchema)
	if err != nil {
		t.Fatalf("compile fixture schema: %v", err)
	}
	return r
}

// WriteFiles writes files (slash paths relative to root) and returns root.
func WriteFiles(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}
