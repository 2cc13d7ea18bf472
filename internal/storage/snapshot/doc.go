// Package snapshot provides a registry.Store that keeps the whole registry in
// memory and persists it as a single compressed JSON image.
//
// Files ending in .gz are gzip compressed; all others use zstd.
// Loading validates the image, so a snapshot whose lists and links disagree
// is refused at startup rather than served.
package snapshot
