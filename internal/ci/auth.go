package ci

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/f9-o/speedbuild/pkg/errs"
)

// Token resolves the forge API token: the GITHUB_TOKEN environment variable
// first, then the gh CLI's stored session.
func Token(ctx context.Context) (string, error) {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t, nil
	}

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCIAuth, "ci.auth.token").
			WithAdvice("set GITHUB_TOKEN or run `gh auth login`")
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", errs.Newf(errs.ErrCIAuth, "ci.auth.token", "gh returned an empty token").
			WithAdvice("run `gh auth login` to refresh the session")
	}
	return token, nil
}

// HasToken reports whether a token is resolvable, for diagnostics that want
// a yes/no answer without surfacing the error.
func HasToken(ctx context.Context) bool {
	_, err := Token(ctx)
	return err == nil
}
