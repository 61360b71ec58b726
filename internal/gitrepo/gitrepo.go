/*
Package gitrepo runs read-only git queries against a working tree.

Only three queries exist: a work-tree preflight check, a describe of the
nearest tag with dirty detection, and a commit count for repositories
that have never been tagged. Everything else about git stays outside
this tool.
*/
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotRepository means the directory is not inside a git work tree,
	// or the git command itself could not be run.
	ErrNotRepository = errors.New("not a git repository")

	// ErrNoTags means the repository exists but no tag is reachable from
	// HEAD.
	ErrNoTags = errors.New("no tags reachable from HEAD")
)

// git exits 128 for "fatal" conditions: no names found, unborn HEAD,
// not a repository.
const gitFatalExit = 128

// Client invokes the git binary. The zero value runs "git" in the
// current directory with no timeout.
type Client struct {
	// GitCmd is the git executable to run. Defaults to "git".
	GitCmd string
	// Dir is the working tree to query. Empty means the process CWD.
	Dir string
	// Timeout bounds each git invocation. Zero disables the bound.
	Timeout time.Duration
	// Logger receives debug output for failed invocations.
	Logger *slog.Logger
}

// Describe returns the raw output of `git describe --dirty` for the
// configured directory. It first verifies the directory is inside a
// work tree; any preflight failure (including a missing git binary)
// is reported as ErrNotRepository.
func (c *Client) Describe(ctx context.Context) (string, error) {
	if _, err := c.run(ctx, "rev-parse", "--is-inside-work-tree"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRepository, err)
	}

	out, err := c.run(ctx, "describe", "--dirty")
	if err != nil {
		if exitCode(err) == gitFatalExit {
			return "", ErrNoTags
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CommitCount returns the number of commits reachable from HEAD. An
// unborn HEAD (empty repository) counts as zero.
func (c *Client) CommitCount(ctx context.Context) (int, error) {
	out, err := c.run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		if exitCode(err) == gitFatalExit {
			return 0, nil
		}
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count %q: %w", strings.TrimSpace(out), err)
	}
	return n, nil
}

// run executes a single git command and returns its stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	gitCmd := c.GitCmd
	if gitCmd == "" {
		gitCmd = "git"
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, gitCmd, args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if c.Logger != nil {
			c.Logger.Debug("git command failed",
				"args", args,
				"error", err,
				"stderr", strings.TrimSpace(stderr.String()),
			)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// exitCode extracts the process exit code from a wrapped run error, or
// -1 if the error did not come from a process exit.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
