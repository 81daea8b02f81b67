// Package ci is the client side of the hosted build workflow. The workflow
// itself lives on the forge and stays opaque; this package only dispatches
// it, inspects its runs, and retrieves the artifact it uploads.
package ci

import (
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/f9-o/speedbuild/pkg/errs"
)

// Repo identifies the hosted repository the workflow belongs to.
type Repo struct {
	Hostname string
	Owner    string
	Name     string
}

func (r *Repo) String() string {
	return r.Owner + "/" + r.Name
}

// DiscoverRepo opens the checkout containing dir and derives the hosted
// repository from the named remote. Both HTTPS and SSH remote URLs are
// understood, including self-hosted forge domains.
func DiscoverRepo(dir, remote string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIRepo, "ci.repo.open").
			WithResource(dir).
			WithAdvice("run from inside the project checkout")
	}

	rem, err := repo.Remote(remote)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIRepo, "ci.repo.remote").
			WithResource(remote).
			WithAdvice("set ci.remote to a remote that exists in this checkout")
	}

	urls := rem.Config().URLs
	if len(urls) == 0 {
		return nil, errs.Newf(errs.ErrCIRepo, "ci.repo.remote", "remote %q has no URL", remote)
	}

	parsed, err := ParseRemoteURL(urls[0])
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIRepo, "ci.repo.parse").WithResource(urls[0])
	}
	return parsed, nil
}

// CurrentBranch returns the short name of the branch HEAD is on in the
// checkout containing dir.
func CurrentBranch(dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCIRepo, "ci.repo.open").WithResource(dir)
	}
	head, err := repo.Head()
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCIRepo, "ci.repo.head")
	}
	if !head.Name().IsBranch() {
		return "", errs.Newf(errs.ErrCIRepo, "ci.repo.head", "HEAD is detached").
			WithAdvice("check out a branch or pass --ref")
	}
	return head.Name().Short(), nil
}

// ParseRemoteURL extracts hostname, owner and repository name from a git
// remote URL. Supported forms:
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo
func ParseRemoteURL(raw string) (*Repo, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimPrefix(s, "ssh://")

	var hostname, path string
	if at := strings.Index(s, "@"); at >= 0 {
		// SSH form: user@host:owner/repo or user@host/owner/repo
		hostAndPath := s[at+1:]
		if colon := strings.Index(hostAndPath, ":"); colon >= 0 {
			hostname = hostAndPath[:colon]
			path = hostAndPath[colon+1:]
		} else if slash := strings.Index(hostAndPath, "/"); slash >= 0 {
			hostname = hostAndPath[:slash]
			path = hostAndPath[slash+1:]
		} else {
			return nil, fmt.Errorf("remote URL %q has no repository path", raw)
		}
	} else {
		// HTTPS form
		s = strings.TrimPrefix(s, "https://")
		s = strings.TrimPrefix(s, "http://")
		slash := strings.Index(s, "/")
		if slash < 0 {
			return nil, fmt.Errorf("remote URL %q has no repository path", raw)
		}
		hostname = s[:slash]
		path = s[slash+1:]
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("remote URL %q path must be owner/repo", raw)
	}

	r := &Repo{
		Hostname: hostname,
		Owner:    parts[0],
		Name:     parts[len(parts)-1],
	}
	if r.Hostname == "" || r.Owner == "" || r.Name == "" {
		return nil, fmt.Errorf("could not parse remote URL %q", raw)
	}
	return r, nil
}
