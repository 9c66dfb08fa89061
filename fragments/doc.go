// package fragments provides the low-level, dialect-agnostic building
// blocks used by the cdr package to read and write CDR-encoded bytes:
// endianness handling, byte swapping, and conversion of primitives to
// and from their in-memory bytes.
//
// Nothing in this package understands CDR alignment rules, headers, or
// property trees. It is the caller's responsibility (the cdr package)
// to combine these primitives into a correct CDR/XCDR encoding.
package fragments
