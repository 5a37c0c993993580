package classify

import (
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// loadGitignore collects every .gitignore under root into one matcher.
func loadGitignore(root string) (gitignore.Matcher, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, err
	}
	return gitignore.NewMatcher(patterns), nil
}

func gitignored(m gitignore.Matcher, rel string, isDir bool) bool {
	if m == nil || rel == "" {
		return false
	}
	return m.Match(strings.Split(rel, "/"), isDir)
}
