package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"tastymetrics/pkg/errors"
	"tastymetrics/pkg/models"
)

var packNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// SyncPack clones the pack repository into its local path, or pulls if a
// checkout already exists. Network failures retry with backoff.
func SyncPack(ctx context.Context, pack models.QueryPack) error {
	if pack.GitURL == "" {
		return errors.New(errors.ErrCodePackInvalid, "query pack has no git URL").
			WithContext("pack", pack.Name)
	}
	if pack.Path == "" {
		return errors.New(errors.ErrCodePackInvalid, "query pack has no local path").
			WithContext("pack", pack.Name)
	}

	return errors.RetryWithBackoff(ctx, func(ctx context.Context) error {
		if err := cloneOrPull(ctx, pack); err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "connection") ||
				strings.Contains(errStr, "timeout") ||
				strings.Contains(errStr, "unreachable") {
				return errors.New(errors.ErrCodeServiceUnavailable,
					"Network error while syncing query pack").
					WithContext("pack", pack.Name).
					WithContext("url", pack.GitURL).
					AsRecoverable()
			}
			return errors.Wrap(err, errors.ErrCodePackSyncFailed,
				fmt.Sprintf("Failed to sync query pack %s", pack.Name)).
				WithContext("url", pack.GitURL)
		}
		return nil
	})
}

func cloneOrPull(ctx context.Context, pack models.QueryPack) error {
	if _, err := os.Stat(filepath.Join(pack.Path, ".git")); err == nil {
		repo, err := git.PlainOpen(pack.Path)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to pull updates: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(pack.Path), 0o750); err != nil {
		return fmt.Errorf("failed to create pack directory: %w", err)
	}

	opts := &git.CloneOptions{URL: pack.GitURL, Depth: 1}
	if pack.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(pack.Branch)
		opts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, pack.Path, false, opts); err != nil {
		return fmt.Errorf("failed to clone %s: %w", pack.GitURL, err)
	}
	return nil
}

// LoadPack reads every .sql file in the pack checkout into a definition.
// The query name is the file name without extension; templates may use the
// same {{where}} and {{limit}} substitution points as the built-ins, and a
// leading "-- title:" comment line becomes the query title.
func LoadPack(dir string) ([]Definition, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePackInvalid, "failed to list pack files")
	}

	var defs []Definition
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".sql")
		if !packNameRe.MatchString(name) {
			return nil, errors.New(errors.ErrCodePackInvalid,
				fmt.Sprintf("invalid query name %q", name)).
				WithContext("file", file).
				WithSuggestions("Pack file names must be lowercase letters, digits and dashes")
		}

		content, err := os.ReadFile(file) // #nosec G304 - enumerated from the pack checkout
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePackInvalid,
				fmt.Sprintf("failed to read %s", file))
		}

		statement := strings.TrimSpace(string(content))
		if statement == "" {
			return nil, errors.New(errors.ErrCodePackInvalid,
				fmt.Sprintf("pack query %q is empty", name))
		}

		d := Definition{
			Name:           name,
			Title:          name,
			Description:    "Query pack template",
			statement:      statement,
			AcceptsDates:   strings.Contains(statement, "{{where}}"),
			AcceptsCountry: strings.Contains(statement, "{{where}}"),
			AcceptsLimit:   strings.Contains(statement, "{{limit}}"),
		}
		if title, ok := strings.CutPrefix(statement, "-- title:"); ok {
			if idx := strings.IndexByte(title, '\n'); idx >= 0 {
				d.Title = strings.TrimSpace(title[:idx])
			}
		}
		defs = append(defs, d)
	}

	return defs, nil
}
