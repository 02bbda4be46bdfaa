// Package textutil provides text normalization and similarity helpers shared
// by the filename analyzer and the identity matcher.
//
// The primary use cases are:
//   - Normalizing titles for comparison (lowercase, diacritics stripped,
//     separators collapsed)
//   - Computing string similarity via Levenshtein distance
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
