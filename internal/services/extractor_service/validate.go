package extractor_service

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

type limits struct {
	maxExpandedSize int64
	maxNameLength   int
}

type manifestStats struct {
	members   int
	files     int
	totalSize int64
}

// cleanMemberName turns a stored member name into a slash separated path
// relative to the extraction root. An empty result means the member names the
// root itself and carries nothing to write.
func cleanMemberName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	normalized := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(normalized, "/") || hasVolumeName(normalized) {
		return "", fmt.Errorf("%w: абсолютный путь %q", ErrUnsafePath, name)
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: выход за пределы директории %q", ErrUnsafePath, name)
		}
	}

	cleaned := path.Clean(normalized)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

func hasVolumeName(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

func checkMember(m member, total int64, lim limits) (int64, error) {
	if m.size > lim.maxExpandedSize-total {
		return total, fmt.Errorf("%w: больше %d байт после элемента %q", ErrExpandedSizeExceeded, lim.maxExpandedSize, m.name)
	}
	total += m.size

	if _, err := cleanMemberName(m.name); err != nil {
		return total, err
	}

	if n := utf8.RuneCountInString(m.name); n > lim.maxNameLength {
		preview := m.name
		if r := []rune(preview); len(r) > 50 {
			preview = string(r[:50]) + "..."
		}
		return total, fmt.Errorf("%w: %d символов (%s)", ErrFilenameTooLong, n, preview)
	}

	switch m.typ {
	case memberSymlink, memberHardlink, memberDevice, memberFIFO:
		return total, fmt.Errorf("%w: %s %q", ErrUnsafeMemberType, m.typ, m.name)
	}

	return total, nil
}

// validateManifest reads member metadata only. Nothing is written to disk, so
// a rejected archive leaves the target untouched.
func validateManifest(r archiveReader, lim limits) (manifestStats, error) {
	var stats manifestStats
	err := r.walk(func(m member, _ openFunc) error {
		total, err := checkMember(m, stats.totalSize, lim)
		stats.totalSize = total
		if err != nil {
			return err
		}
		stats.members++
		if m.typ == memberFile {
			stats.files++
		}
		return nil
	})
	return stats, err
}
