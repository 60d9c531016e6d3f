package remote

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Git discovers skills in a GitHub or GitLab repository through a shallow
// clone made with the git binary.
type Git struct {
	*checkouts
	ref string
}

// NewGit creates a provider cloning ref, or the default branch when ref is
// empty
func NewGit(ref string) *Git {
	g := &Git{ref: ref}
	g.checkouts = newCheckouts(g.clone)
	return g
}

func (g *Git) clone(ctx context.Context, url, dir string) error {
	url = normalizeGitURL(url)

	args := []string{"clone", "--depth", "1"}
	if g.ref != "" {
		args = append(args, "--branch", g.ref)
	}
	args = append(args, url, dir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = errors.Wrap(err, msg)
		}
		return &Error{Op: "git clone", Source: url, Err: err}
	}
	return nil
}

// normalizeGitURL converts host/owner/repo forms to a cloneable HTTPS URL
func normalizeGitURL(url string) string {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "file://") || strings.HasPrefix(url, "/") {
		return url
	}

	url = strings.TrimSuffix(url, ".git")
	if strings.HasPrefix(url, "github.com/") || strings.HasPrefix(url, "gitlab.com/") {
		url = "https://" + url
	}
	return url + ".git"
}
