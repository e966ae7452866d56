// Package ir provides the JSON-like document tree that portable values are
// written to and read from.
//
// This package contains the tree types and their serializations only. It
// imports nothing internal, so every layer above it can share one document
// representation.
//
// Key design constraints:
//   - Numbers keep their literal text (Number) so float32 values round-trip exactly
//   - Object keys are emitted in sorted order; serialization is deterministic
//   - MarshalCanonical (RFC 8785 key order, NFC strings) is reserved for fingerprints
package ir
