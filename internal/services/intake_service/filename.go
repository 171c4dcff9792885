package intake_service

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// sanitizeFilename reduces an uploaded name to a safe base name made of
// ASCII letters, digits, '.', '_' and '-'.
func sanitizeFilename(name string, now time.Time) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r > unicode.MaxASCII:
			// dropped
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return fmt.Sprintf("file_%d", now.Unix())
	}
	return clean
}

// isAllowed accepts a name whose last extension, or whole lowercase name
// (Dockerfile, Makefile), is in the upload whitelist.
func (s *intakeService) isAllowed(name string) bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if _, ok := s.allowed[base]; ok {
		return true
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return false
	}
	_, ok := s.allowed[base[i+1:]]
	return ok
}

// cleanRelPath accepts a slash or backslash separated path relative to the
// workspace and refuses absolute paths and any ".." segment.
func cleanRelPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") || (len(p) >= 2 && p[1] == ':') {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}

	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}
