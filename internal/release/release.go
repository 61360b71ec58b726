/*
Package release resolves the package version string for a working tree.

The fresh path asks git to describe the tree, parses the descriptor, and
normalizes it to a PEP440 version; the result is written to the version
cache as a side effect. When no descriptor can be obtained (not a
repository, unparsable tag), the last cached value is returned instead.
Resolution fails only when both paths come up empty.
*/
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoshiko/relver/internal/descriptor"
	"github.com/hoshiko/relver/internal/gitrepo"
	"github.com/hoshiko/relver/internal/pep440"
	"github.com/hoshiko/relver/internal/vcache"
)

// Source tells where a resolved version came from.
type Source string

const (
	// SourceFresh means the version was computed from git metadata.
	SourceFresh Source = "git"
	// SourceCache means the version was read from the cache file.
	SourceCache Source = "cache"
)

// Repo is the version-control query the resolver depends on. Satisfied
// by *gitrepo.Client; tests substitute a fake.
type Repo interface {
	Describe(ctx context.Context) (string, error)
	CommitCount(ctx context.Context) (int, error)
}

// Recorder receives one record per resolved version. Satisfied by
// *history.DB.
type Recorder interface {
	Record(rawDescriptor, version, source string) error
}

// Result is a resolved version.
type Result struct {
	Version string
	Source  Source
	// Descriptor is the raw describe output the version was derived
	// from. Empty on the cache-fallback and untagged-repository paths.
	Descriptor string
}

// Resolver wires the version-control query, the cache, and the optional
// history log together.
type Resolver struct {
	Repo    Repo
	Cache   vcache.Cache
	History Recorder // nil disables recording
	Logger  *slog.Logger
}

// Resolve computes the version string. A fresh computation always
// overwrites the cache; a failed cache write is logged but does not
// fail the resolution. When the fresh path fails, the cached value is
// returned with a warning. Both paths failing is fatal.
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	res, err := r.fresh(ctx)
	if err == nil {
		if serr := r.Cache.Store(res.Version); serr != nil {
			r.Logger.Warn("could not write version cache", "error", serr)
		}
		r.record(res)
		return res, nil
	}

	r.Logger.Warn("could not compute a fresh version, falling back to cache", "error", err)

	cached, cerr := r.Cache.Load()
	if cerr != nil {
		if errors.Is(cerr, vcache.ErrNotFound) {
			return Result{}, fmt.Errorf("cannot determine version: %w (cache: %v)", err, cerr)
		}
		return Result{}, cerr
	}

	res = Result{Version: cached, Source: SourceCache}
	r.record(res)
	return res, nil
}

// fresh computes a version from git metadata alone.
func (r *Resolver) fresh(ctx context.Context) (Result, error) {
	raw, err := r.Repo.Describe(ctx)
	if errors.Is(err, gitrepo.ErrNoTags) {
		// Repository exists but was never tagged: number the development
		// line from zero by commit count.
		n, cntErr := r.Repo.CommitCount(ctx)
		if cntErr != nil {
			return Result{}, cntErr
		}
		return Result{Version: pep440.Dev(n), Source: SourceFresh}, nil
	}
	if err != nil {
		return Result{}, err
	}

	d, err := descriptor.Parse(raw)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Version:    pep440.Normalize(d),
		Source:     SourceFresh,
		Descriptor: raw,
	}, nil
}

func (r *Resolver) record(res Result) {
	if r.History == nil {
		return
	}
	if err := r.History.Record(res.Descriptor, res.Version, string(res.Source)); err != nil {
		r.Logger.Warn("could not record version history", "error", err)
	}
}
