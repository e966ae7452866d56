// Package assetdb is a file-backed project host.
//
// A project is a directory tree of plain assets (YAML files ending in
// ".asset") and variants (YAML files ending in ".assetvariant"). Every file
// carries a GUID; the SQLite index in internal/store maps GUIDs to paths.
//
// An asset file names its schema type and lists field values as a nested
// document:
//
//	guid: 6f1c2d4e-...
//	type: Enemy
//	fields:
//	  speed: 5
//	  stats: {hp: 40, armor: 2}
//
// A variant file holds the origin GUID and the serialized override store:
//
//	guid: 0b9e...
//	origin: 6f1c2d4e-...
//	patch: '{"v":1,"o":{"speed":9.5}}'
//
// Project implements host.Database, codec.References, variant.ArtifactStore
// and variant.Namespace. Variants may themselves be origins; chains are
// resolved recursively and cycles are reported as unresolved origins.
package assetdb
