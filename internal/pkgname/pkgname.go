// Package pkgname derives a package's identity hash from its source file
// path: the last path component, with any file extension stripped, hashed
// with a 64-bit FNV-style mix.
package pkgname

import "strings"

// Invalid is returned by Hash when no valid package name could be extracted
// from a path (e.g. a path that is entirely a directory separator followed
// by nothing, or a bare file extension with no basename).
const Invalid = ^uint64(0)

// hashPrime is the 64-bit FNV prime used to mix each byte of the name.
const hashPrime = 0x100000001b3

// hashBytes folds s into a 64-bit hash. This is deliberately NOT the
// standard library's FNV-1/FNV-1a (which seed with the FNV offset basis and
// XOR before multiplying): it seeds at zero and multiplies before XORing
// the next byte in, matching the exact non-standard mix package names are
// required to use.
func hashBytes(s string) uint64 {
	var hash uint64
	for i := 0; i < len(s); i++ {
		hash *= hashPrime
		hash ^= uint64(s[i])
	}
	return hash
}

// Hash extracts a package name from path and returns its hash, or Invalid if
// path contains no usable name.
//
// The name is the final path component (split on '/'), with its extension
// (the part after the last '.', only when that dot falls within the final
// component) removed. A path with no separator and no extension is used
// in its entirety.
func Hash(path string) uint64 {
	name, ok := Extract(path)
	if !ok {
		return Invalid
	}
	return hashBytes(name)
}

// Extract returns the package name component of path, or ok=false if none
// could be derived.
//
// An empty name is never valid: a bare extension (".txt" or "dir/.txt"), a
// trailing separator ("dir/") and an empty path all give ok=false.
func Extract(path string) (name string, ok bool) {
	lastSlash := strings.LastIndexByte(path, '/')
	lastDot := strings.LastIndexByte(path, '.')
	if lastSlash != -1 && lastDot < lastSlash {
		// The dot belongs to an earlier path component, not an extension.
		lastDot = -1
	}

	switch {
	case lastSlash == -1 && lastDot == -1:
		return path, path != ""
	case lastSlash == -1:
		return path[:lastDot], lastDot > 0
	default:
		stop := len(path)
		if lastDot != -1 {
			stop = lastDot
		}
		if stop-lastSlash <= 1 {
			return "", false
		}
		return path[lastSlash+1 : stop], true
	}
}
