package ci

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/core/logger"
	"github.com/f9-o/speedbuild/pkg/errs"
)

// maxRedirects caps the redirect chain when resolving artifact download URLs.
const maxRedirects = 5

// Client talks to the forge's Actions API for one repository and one
// workflow file.
type Client struct {
	gh   *github.Client
	http *http.Client
	log  *logger.Logger
	repo *Repo
	spec v1.CISpec
}

// New authenticates and resolves the hosted repository from the checkout's
// configured remote.
func New(ctx context.Context, spec v1.CISpec, log *logger.Logger) (*Client, error) {
	token, err := Token(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := DiscoverRepo(".", spec.Remote)
	if err != nil {
		return nil, err
	}

	gh, err := newForgeClient(ctx, repo.Hostname, token)
	if err != nil {
		return nil, err
	}

	log.Debug("ci.client_ready", "repo", repo.String(), "workflow", spec.Workflow)
	return &Client{
		gh:   gh,
		http: http.DefaultClient,
		log:  log,
		repo: repo,
		spec: spec,
	}, nil
}

// Repo returns the resolved hosted repository.
func (c *Client) Repo() *Repo {
	return c.repo
}

// newForgeClient builds an authenticated API client, pointing it at the
// enterprise endpoints when the remote is not github.com.
func newForgeClient(ctx context.Context, hostname, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrCIRepo, "ci.client.base_url").WithResource(hostname)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrCIRepo, "ci.client.upload_url").WithResource(hostname)
		}
		gh.BaseURL = baseURL
		gh.UploadURL = uploadURL
	}
	return gh, nil
}

// Dispatch triggers the configured workflow on ref. An empty ref means the
// checkout's current branch.
func (c *Client) Dispatch(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		branch, err := CurrentBranch(".")
		if err != nil {
			return "", err
		}
		ref = branch
	}

	event := github.CreateWorkflowDispatchEventRequest{Ref: ref}
	_, err := c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, c.repo.Owner, c.repo.Name, c.spec.Workflow, event)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCIDispatch, "ci.dispatch").
			WithResource(c.spec.Workflow).
			WithAdvice("the workflow file must exist on the ref and declare a workflow_dispatch trigger")
	}

	c.log.Info("ci.dispatched", "workflow", c.spec.Workflow, "ref", ref, "repo", c.repo.String())
	return ref, nil
}

// Runs returns recent runs of the configured workflow, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]v1.WorkflowRunInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	runs, _, err := c.gh.Actions.ListWorkflowRunsByFileName(ctx, c.repo.Owner, c.repo.Name, c.spec.Workflow, &github.ListWorkflowRunsOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIRuns, "ci.runs").WithResource(c.spec.Workflow)
	}

	infos := make([]v1.WorkflowRunInfo, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		infos = append(infos, runInfo(run))
	}
	return infos, nil
}

// LatestSuccessful returns the newest run that concluded successfully.
func (c *Client) LatestSuccessful(ctx context.Context) (*v1.WorkflowRunInfo, error) {
	runs, _, err := c.gh.Actions.ListWorkflowRunsByFileName(ctx, c.repo.Owner, c.repo.Name, c.spec.Workflow, &github.ListWorkflowRunsOptions{
		Status:      "success",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIRuns, "ci.latest").WithResource(c.spec.Workflow)
	}
	if len(runs.WorkflowRuns) == 0 {
		return nil, errs.Newf(errs.ErrCIRuns, "ci.latest", "no successful runs of %s", c.spec.Workflow).
			WithAdvice("trigger one with `speedbuild ci run` or push to the repository")
	}

	info := runInfo(runs.WorkflowRuns[0])
	return &info, nil
}

// Artifacts lists the artifacts attached to runID.
func (c *Client) Artifacts(ctx context.Context, runID int64) ([]v1.ArtifactInfo, error) {
	list, _, err := c.gh.Actions.ListWorkflowRunArtifacts(ctx, c.repo.Owner, c.repo.Name, runID, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrCIArtifact, "ci.artifacts").
			WithResource(fmt.Sprintf("run %d", runID))
	}

	infos := make([]v1.ArtifactInfo, 0, len(list.Artifacts))
	for _, a := range list.Artifacts {
		infos = append(infos, v1.ArtifactInfo{
			ID:        a.GetID(),
			Name:      a.GetName(),
			SizeBytes: a.GetSizeInBytes(),
			Expired:   a.GetExpired(),
			CreatedAt: a.GetCreatedAt().Time,
		})
	}
	return infos, nil
}

// Download fetches the configured artifact's archive into destDir and
// returns the written path. A runID of 0 selects the newest successful run.
// progress, when non-nil, receives byte counts as the body streams; total is
// -1 when the server does not announce a length.
func (c *Client) Download(ctx context.Context, runID int64, destDir string, progress func(done, total int64)) (string, error) {
	if runID == 0 {
		run, err := c.LatestSuccessful(ctx)
		if err != nil {
			return "", err
		}
		runID = run.ID
		c.log.Info("ci.download_run", "run", runID, "branch", run.Branch)
	}

	artifacts, err := c.Artifacts(ctx, runID)
	if err != nil {
		return "", err
	}

	var target *v1.ArtifactInfo
	names := make([]string, 0, len(artifacts))
	for i, a := range artifacts {
		names = append(names, a.Name)
		if a.Name == c.spec.Artifact {
			target = &artifacts[i]
		}
	}
	if target == nil {
		return "", errs.Newf(errs.ErrCIArtifact, "ci.download",
			"run %d has no artifact named %q (available: %s)", runID, c.spec.Artifact, strings.Join(names, ", ")).
			WithAdvice("set ci.artifact to one of the names the workflow uploads")
	}
	if target.Expired {
		return "", errs.Newf(errs.ErrCIArtifact, "ci.download", "artifact %q of run %d has expired", target.Name, runID).
			WithAdvice("re-run the workflow to produce a fresh artifact")
	}

	dlURL, _, err := c.gh.Actions.DownloadArtifact(ctx, c.repo.Owner, c.repo.Name, target.ID, maxRedirects)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCIArtifact, "ci.download.url").WithResource(target.Name)
	}

	dest := filepath.Join(destDir, target.Name+".zip")
	if err := c.fetch(ctx, dlURL.String(), dest, target.SizeBytes, progress); err != nil {
		return "", err
	}

	c.log.Info("ci.downloaded", "artifact", target.Name, "run", runID, "path", dest)
	return dest, nil
}

// fetch streams url into path. The URL is pre-signed, so no auth header is
// attached.
func (c *Client) fetch(ctx context.Context, url, path string, sizeHint int64, progress func(done, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrCIArtifact, "ci.fetch.request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrCIArtifact, "ci.fetch").WithResource(path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.Newf(errs.ErrCIArtifact, "ci.fetch", "unexpected status %d", resp.StatusCode).WithResource(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errs.Wrap(err, errs.ErrCIArtifact, "ci.fetch.dir").WithResource(filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, errs.ErrCIArtifact, "ci.fetch.create").WithResource(path)
	}
	defer f.Close()

	total := resp.ContentLength
	if total <= 0 {
		total = sizeHint
	}
	if total <= 0 {
		total = -1
	}

	var w io.Writer = f
	if progress != nil {
		w = &countingWriter{w: f, total: total, progress: progress}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errs.Wrap(err, errs.ErrCIArtifact, "ci.fetch.copy").WithResource(path)
	}
	return nil
}

// countingWriter reports cumulative bytes written to a progress callback.
type countingWriter struct {
	w        io.Writer
	done     int64
	total    int64
	progress func(done, total int64)
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.done += int64(n)
	cw.progress(cw.done, cw.total)
	return n, err
}

func runInfo(run *github.WorkflowRun) v1.WorkflowRunInfo {
	return v1.WorkflowRunInfo{
		ID:         run.GetID(),
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		Branch:     run.GetHeadBranch(),
		HeadSHA:    run.GetHeadSHA(),
		Event:      run.GetEvent(),
		CreatedAt:  run.GetCreatedAt().Time,
		URL:        run.GetHTMLURL(),
	}
}
