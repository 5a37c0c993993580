package classify

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"fedindex/internal/model"
)

// DefaultExcludes mirrors the federation defaults: dependency trees, VCS
// metadata, editor droppings and scratch directories.
var DefaultExcludes = []string{
	"node_modules", ".git", ".DS_Store", "*.tmp", "*.log", "temp", "cache",
}

type Options struct {
	ExcludePatterns  []string
	RespectGitignore bool
}

// Classifier decides whether an entry is excluded from the federation and
// infers a coarse content type from its extension.
type Classifier struct {
	patterns []string
	ign      gitignore.Matcher
}

func New(root string, opts Options) (*Classifier, error) {
	patterns := opts.ExcludePatterns
	if patterns == nil {
		patterns = DefaultExcludes
	}

	var ign gitignore.Matcher
	if opts.RespectGitignore {
		m, err := loadGitignore(root)
		if err != nil {
			return nil, err
		}
		ign = m
	}

	return &Classifier{patterns: patterns, ign: ign}, nil
}

// Excluded reports whether the root-relative path should be skipped.
// Patterns without a path separator match the basename; patterns with one
// match the whole relative path. Both use doublestar glob semantics.
func (c *Classifier) Excluded(rel string, isDir bool) bool {
	if c == nil {
		return false
	}
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" {
		return false
	}
	name := path.Base(rel)

	for _, pat := range c.patterns {
		pat = strings.TrimSpace(strings.ReplaceAll(pat, "\\", "/"))
		if pat == "" {
			continue
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := doublestar.Match(pat, name); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}

	return gitignored(c.ign, rel, isDir)
}

var contentTypes = map[string]model.ContentType{
	".go":    model.ContentCode,
	".js":    model.ContentCode,
	".jsx":   model.ContentCode,
	".ts":    model.ContentCode,
	".tsx":   model.ContentCode,
	".py":    model.ContentCode,
	".rb":    model.ContentCode,
	".rs":    model.ContentCode,
	".java":  model.ContentCode,
	".c":     model.ContentCode,
	".h":     model.ContentCode,
	".cpp":   model.ContentCode,
	".cs":    model.ContentCode,
	".php":   model.ContentCode,
	".sh":    model.ContentCode,
	".sql":   model.ContentCode,
	".swift": model.ContentCode,
	".kt":    model.ContentCode,

	".md":   model.ContentDocument,
	".txt":  model.ContentDocument,
	".pdf":  model.ContentDocument,
	".doc":  model.ContentDocument,
	".docx": model.ContentDocument,
	".rtf":  model.ContentDocument,
	".odt":  model.ContentDocument,

	".png":  model.ContentImage,
	".jpg":  model.ContentImage,
	".jpeg": model.ContentImage,
	".gif":  model.ContentImage,
	".bmp":  model.ContentImage,
	".svg":  model.ContentImage,
	".webp": model.ContentImage,
	".ico":  model.ContentImage,

	".mp4":  model.ContentVideo,
	".mov":  model.ContentVideo,
	".avi":  model.ContentVideo,
	".mkv":  model.ContentVideo,
	".webm": model.ContentVideo,

	".mp3":  model.ContentAudio,
	".wav":  model.ContentAudio,
	".flac": model.ContentAudio,
	".ogg":  model.ContentAudio,
	".m4a":  model.ContentAudio,

	".zip": model.ContentArchive,
	".tar": model.ContentArchive,
	".gz":  model.ContentArchive,
	".bz2": model.ContentArchive,
	".xz":  model.ContentArchive,
	".rar": model.ContentArchive,
	".7z":  model.ContentArchive,

	".csv":     model.ContentData,
	".tsv":     model.ContentData,
	".parquet": model.ContentData,
	".db":      model.ContentData,
	".sqlite":  model.ContentData,

	".json": model.ContentConfig,
	".yaml": model.ContentConfig,
	".yml":  model.ContentConfig,
	".toml": model.ContentConfig,
	".ini":  model.ContentConfig,
	".env":  model.ContentConfig,
	".xml":  model.ContentConfig,

	".html": model.ContentWeb,
	".htm":  model.ContentWeb,
	".css":  model.ContentWeb,
	".scss": model.ContentWeb,
}

// ContentTypeFor maps a file extension (with or without the leading dot)
// to a coarse content type. Unknown extensions map to ContentUnknown.
func ContentTypeFor(ext string) model.ContentType {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return model.ContentUnknown
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return model.ContentUnknown
}
