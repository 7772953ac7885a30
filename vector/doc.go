// Package vector implements an embedding-backed document store over a
// collection plus a vector-enabled search index. Texts are embedded through
// a pluggable Embedder (see the openai sub-package for the OpenAI
// implementation), persisted with their vectors, and retrieved by
// nearest-neighbor similarity search.
package vector
