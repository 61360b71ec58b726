/*
Package pep440 renders parsed tag descriptors as PEP440-compatible
version strings.

The mapping keeps PEP440 ordering intact: an exact tag sorts before its
post-releases, a .devN build sorts before the non-dev release of the
same post number, and every post-release sorts before the next tag.
*/
package pep440

import (
	"fmt"

	"github.com/hoshiko/relver/internal/descriptor"
)

// Normalize maps a descriptor onto its version string:
//
//	clean, on the tag       -> "<tag>"
//	clean, N commits past   -> "<tag>.postN"
//	dirty, on the tag       -> "<tag>.post1.dev0"
//	dirty, N commits past   -> "<tag>.post<N+1>.dev0"
//
// A dirty tree reserves the next post-release slot (the uncommitted
// changes are unrecorded work) and marks it in-development with .dev0.
func Normalize(d descriptor.Descriptor) string {
	switch {
	case d.Dirty:
		return fmt.Sprintf("%s.post%d.dev0", d.Tag, d.Distance+1)
	case d.Distance > 0:
		return fmt.Sprintf("%s.post%d", d.Tag, d.Distance)
	default:
		return d.Tag
	}
}

// Dev renders the version used when the repository has no reachable
// release tag at all: "0.devN" where N is the commit count of HEAD.
func Dev(commits int) string {
	return fmt.Sprintf("0.dev%d", commits)
}
