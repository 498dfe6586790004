package hostenv

import (
	"path/filepath"
	"strings"
)

type mount struct {
	point   string
	options map[string]struct{}
}

func (m mount) has(opt string) bool {
	_, ok := m.options[opt]
	return ok
}

// NoExecMount returns the mount point governing path and whether it is
// mounted noexec. It is best effort and answers false when mount data is
// unavailable.
func NoExecMount(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	m, ok := governingMount(path, readMounts())
	if !ok {
		return "", false
	}
	return m.point, m.has("noexec")
}

// parseMountinfo reads /proc/self/mountinfo content:
//
//	id parent major:minor root mountpoint options [optional...] - fstype source superopts
func parseMountinfo(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		sep := indexOf(fields, "-")
		if sep < 6 {
			continue
		}
		m := mount{point: unescapeMountPath(fields[4]), options: parseMountOptions(fields[5])}
		if sep+3 < len(fields) {
			for k := range parseMountOptions(fields[sep+3]) {
				m.options[k] = struct{}{}
			}
		}
		out = append(out, m)
	}
	return out
}

// parseProcMounts reads /proc/mounts content: source point fstype options.
func parseProcMounts(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		out = append(out, mount{point: unescapeMountPath(fields[1]), options: parseMountOptions(fields[3])})
	}
	return out
}

func indexOf(fields []string, s string) int {
	for i, f := range fields {
		if f == s {
			return i
		}
	}
	return -1
}

func parseMountOptions(opt string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, part := range strings.Split(opt, ",") {
		if part = strings.TrimSpace(part); part != "" {
			m[part] = struct{}{}
		}
	}
	return m
}

// procfs octal-escapes whitespace and backslashes in paths.
var mountPathUnescaper = strings.NewReplacer(
	`\040`, " ",
	`\011`, "\t",
	`\012`, "\n",
	`\134`, `\`,
)

func unescapeMountPath(value string) string {
	return mountPathUnescaper.Replace(value)
}

// governingMount picks the longest mount point that contains path.
func governingMount(path string, mounts []mount) (mount, bool) {
	dest := filepath.ToSlash(filepath.Clean(path))
	if dest == "." {
		return mount{}, false
	}

	var (
		best  mount
		found bool
	)
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.point))
		if point == "." || !within(dest, point) {
			continue
		}
		if !found || len(point) > len(best.point) {
			best = mount{point: point, options: m.options}
			found = true
		}
	}
	return best, found
}

func within(path, dir string) bool {
	if dir == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == dir || strings.HasPrefix(path, dir+"/")
}
