/*
Package descriptor parses the output of a git-describe style query into
structured fields: the nearest release tag, the number of commits since
that tag, and whether the working tree has uncommitted changes.

Accepted shapes:

	<tag>
	<tag>-dirty
	<tag>-<distance>-g<hash>
	<tag>-<distance>-g<hash>-dirty

The commit hash only disambiguates the shape; it is discarded. The tag
must match the release grammar (dotted numerics with an optional
a/b/c/rc qualifier, e.g. "1.1", "2.0.3", "1.1rc2").
*/
package descriptor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparsableTag is returned when the tag portion of a descriptor does
// not match the release grammar. Callers treat it as "no usable
// descriptor" and fall back to the version cache.
var ErrUnparsableTag = errors.New("tag does not match release grammar")

var (
	// shapeRe splits "<tag>[-<distance>-g<hash>][-dirty]". Garbage ends
	// up in the tag group and is rejected by tagRe below, but inputs
	// with interior newlines don't match at all.
	shapeRe = regexp.MustCompile(`^(.*?)(?:-(\d+)-g[0-9a-f]+)?(-dirty)?$`)

	// tagRe is the release-tag grammar.
	tagRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*((a|b|c|rc)[0-9]+)?$`)
)

// Descriptor is the structured form of a describe-query result.
type Descriptor struct {
	// Tag is the nearest reachable release tag.
	Tag string
	// Distance is the number of commits between HEAD and Tag. Zero means
	// HEAD is exactly the tagged commit.
	Distance int
	// Dirty reports whether the working tree had uncommitted changes.
	Dirty bool
}

// Parse converts a raw describe string into a Descriptor. Surrounding
// whitespace is tolerated. Returns an error wrapping ErrUnparsableTag if
// the tag portion violates the release grammar.
func Parse(raw string) (Descriptor, error) {
	m := shapeRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Descriptor{}, fmt.Errorf("descriptor %q: %w", raw, ErrUnparsableTag)
	}

	d := Descriptor{
		Tag:   m[1],
		Dirty: m[3] != "",
	}

	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Descriptor{}, fmt.Errorf("descriptor %q: bad distance %q: %w", raw, m[2], err)
		}
		d.Distance = n
	}

	if !tagRe.MatchString(d.Tag) {
		return Descriptor{}, fmt.Errorf("descriptor %q: %w: %q", raw, ErrUnparsableTag, d.Tag)
	}

	return d, nil
}
