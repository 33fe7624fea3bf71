// Package integration contains the product delta-sync core: validation and
// transformation of raw ERP records into canonical payloads, content
// fingerprinting for change detection, and the contracts for the ERP source,
// the e-shop dispatcher and the sync state store.
//
// Everything in this package is pure or contract-only; I/O lives in the
// infrastructure layer.
package integration
