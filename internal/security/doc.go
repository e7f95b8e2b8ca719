// Package security holds the pure checks that stand between a remote DCC
// peer and the local filesystem.
//
// # Overview
//
// Every inbound file offer is untrusted input: the peer chooses the
// advertised address, the declared size and the filename. This package
// classifies the advertised address and turns the advertised filename into a
// path that is guaranteed to live inside the download directory.
//
// The two filename layers are independent:
//
//	offered name ──► SanitizeFilename ──► ResolveContainedPath ──► UniquePath
//	                 (strip separators,   (canonicalize and       (name_N.ext,
//	                  leading dots,        require the download    re-checked for
//	                  control bytes)       dir as strict parent)   containment)
//
// A name that survives sanitization but still points outside the directory
// is rejected by ResolveContainedPath with ErrContainment.
//
// # Address classes
//
// ClassifyAddress reports one of Public, Loopback, Private, LinkLocal or
// Reserved. Only Public addresses are accepted when the configured policy
// rejects local peers.
//
// Nothing in this package performs network I/O. ResolveContainedPath and
// UniquePath read filesystem metadata (symlink resolution and existence)
// but never create or modify files.
package security
