package obsidian

import (
	"net/url"
	"strings"
)

// NormalizePath canonicalizes a vault-relative note or folder path and
// rejects anything that could escape the vault or smuggle bytes into the
// request line. The returned path uses forward slashes and has no leading
// or trailing slash (a single trailing slash is preserved so folder
// references stay distinguishable from notes).
func NormalizePath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", badPath(path, "empty")
	}
	if strings.ContainsRune(p, '\x00') {
		return "", badPath(path, "contains NUL byte")
	}
	if strings.ContainsRune(p, '\\') {
		return "", badPath(path, "backslashes are not allowed")
	}
	if strings.HasPrefix(p, "/") {
		return "", badPath(path, "absolute paths are not allowed")
	}

	isFolder := strings.HasSuffix(p, "/")

	p = strings.TrimPrefix(p, "./")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.Trim(p, "/")

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", badPath(path, "parent traversal is not allowed")
		}
	}
	if p == "" || p == "." {
		return "", badPath(path, "empty after normalization")
	}

	if isFolder {
		p += "/"
	}
	return p, nil
}

// encodePath percent-encodes each path segment for use in a request URL.
// Slashes separating segments are kept literal.
func encodePath(path string) string {
	trailing := strings.HasSuffix(path, "/")
	segs := strings.Split(strings.TrimSuffix(path, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	out := strings.Join(segs, "/")
	if trailing {
		out += "/"
	}
	return out
}
