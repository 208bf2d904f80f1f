// Package tools turns a declarative table of functions into tool descriptors
// with JSON input schemas, and binds them to their implementations.
//
// A declaration is a Func: name, documentation block, typed parameters and
// the callable. Synthesize derives the semantic type of each parameter from
// its type hint, marks parameters without a default as required, and takes
// descriptions from the documentation block. SynthesizeBatch builds a Catalog
// from a table, reporting per-entry failures without aborting the batch.
package tools
