// package cdr implements the OMG XTypes/DDS Common Data Representation
// wire formats: Basic CDR, XCDR v1 (parameter-list encoding for
// mutable types), and XCDR v2 (delimited and enhanced parameter-list
// encoding for appendable and mutable types).
//
// cdr is a streaming runtime, not a reflection-based marshaler: it
// drives a value through one of three [Stream] implementations
// together with a compiled [Property] tree describing the value's
// members. Property trees and the procedures that walk them are
// normally produced by the sibling cdrgen package from an IDL AST, not
// written by hand; see cdrgen's doc comment for the code-generation
// side of this split.
//
// A Stream is constructed for one endianness, driven through exactly
// one of the four [Mode]s (read, write, move, or max) via generated
// per-type stream_op procedures, and then discarded. Sizing a value
// before allocating its output buffer is done by running ModeMove
// first and allocating exactly stream.Position() bytes.
//
// Faults (an oversized buffer, a bound violation, an unknown
// must-understand member, ...) accumulate in a 64-bit [Status]
// bitmask rather than being returned as Go errors from every call;
// the caller checks stream.AbortStatus() once, after the top-level
// call, as users of the original C++ implementation do.
// This lets nested reads/writes short-circuit to no-ops after a fault
// without threading an error return through every primitive access.
package cdr
