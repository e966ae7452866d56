package store

// Kind distinguishes plain assets from variants in the index.
type Kind string

const (
	KindAsset   Kind = "asset"
	KindVariant Kind = "variant"
)

// Asset is one indexed file.
type Asset struct {
	GUID string
	// Path is slash-separated and relative to the project's asset root.
	Path string
	Kind Kind
	// Type is the schema type name. Empty for variants.
	Type string
	// Origin is the origin GUID. Empty for plain assets.
	Origin      string
	Fingerprint string
	// Seq is assigned by the store on every upsert.
	Seq int64
}

// Import is one entry of the variant import log.
type Import struct {
	Seq        int64
	GUID       string
	State      string
	StaleCount int
	Malformed  bool
	// Rewritten reports whether the artifact was rewritten after pruning.
	Rewritten bool
	// Fingerprint identifies the materialized document.
	Fingerprint string
	Messages    []string
}
