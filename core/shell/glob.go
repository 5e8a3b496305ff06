package shell

import (
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// matchPattern reports whether name matches a glob pattern. Only * and
// ? are special; everything else matches itself.
func matchPattern(pattern, name string, caseInsensitive bool) bool {
	if caseInsensitive {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	return globMatch([]rune(pattern), []rune(name))
}

func globMatch(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		for i := 0; i <= len(name); i++ {
			if globMatch(pattern[1:], name[i:]) {
				return true
			}
		}
		return false
	case '?':
		return len(name) > 0 && globMatch(pattern[1:], name[1:])
	default:
		return len(name) > 0 && name[0] == pattern[0] && globMatch(pattern[1:], name[1:])
	}
}

// expandGlob matches a pattern against directory entries. Only the
// final path segment may contain wildcards. With no matches the
// pattern itself survives, unless nullglob drops it.
func expandGlob(fs afero.Fs, env *Environment, pattern string) []string {
	dir := env.Cwd
	prefix := ""
	base := pattern
	if idx := strings.LastIndexByte(pattern, '/'); idx >= 0 {
		prefix = pattern[:idx+1]
		base = pattern[idx+1:]
		if idx == 0 {
			dir = "/"
		} else {
			dir = resolvePath(env.Cwd, pattern[:idx])
		}
	}

	var matches []string
	entries, err := afero.ReadDir(fs, dir)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") && !env.Opts.Dotglob && !strings.HasPrefix(base, ".") {
				continue
			}
			if matchPattern(base, name, env.Opts.Nocaseglob) {
				matches = append(matches, prefix+name)
			}
		}
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		if env.Opts.Nullglob {
			return nil
		}
		return []string{pattern}
	}
	return matches
}

// ResolvePath makes a path absolute against a working directory, for
// command implementations that take file arguments.
func ResolvePath(cwd, path string) string {
	return resolvePath(cwd, path)
}

// resolvePath makes a path absolute relative to cwd and normalizes
// dot segments.
func resolvePath(cwd, path string) string {
	if !strings.HasPrefix(path, "/") {
		if cwd == "/" {
			path = "/" + path
		} else {
			path = cwd + "/" + path
		}
	}
	return normalizePath(path)
}

// normalizePath collapses empty, "." and ".." segments without
// touching a filesystem.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return "/" + strings.Join(stack, "/")
}
