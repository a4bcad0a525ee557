// Package inspect lists the DLLs a Windows binary declares.
//
// An [Inspector] returns the declared [Name] values of one file with
// base-system libraries already removed. Three implementations exist:
//
//   - [Objdump] runs "<command> -p <file>" and reads "DLL Name: x.dll" lines.
//   - [PE] reads the import table directly with debug/pe.
//   - [Cached] wraps either one and remembers results by file content hash.
//
// Filtering is governed by an [Excluder]. [DefaultExcluder] holds the
// well-known system DLLs and the "api-ms-win-" forwarder prefix; it is built
// once at init and never mutated, so it is safe to share.
//
// A failing inspection is an environment problem (missing or broken tool,
// unreadable file), reported as an [*InspectError]. It is never turned into
// a missing dependency.
package inspect
