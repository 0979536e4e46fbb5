// Package types defines the public identifiers and typed errors shared by the
// bufheap packages.
//
// Design goals:
//   - Small, copyable handles (ID) instead of pointers into mapped memory.
//   - Typed errors with stable categories (capacity/not-found/size/layout/...)
//     so callers can branch on intent rather than text.
//   - A diagnostic report that collects every structural issue a check finds.
//
// This package has no dependencies beyond the standard library.
package types
