package update

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Tag is a parsed upstream release tag.
type Tag struct {
	GCC      *semver.Version
	Runtime  int
	Revision int
	raw      string
}

var tagRe = regexp.MustCompile(`^v?([0-9]+(?:\.[0-9]+){0,2})-rt_v([0-9]+)-rev([0-9]+)$`)

// ParseTag parses "13.2.0-rt_v11-rev1" style tags. Plain semver tags are
// accepted with zero runtime and revision.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if m := tagRe.FindStringSubmatch(s); m != nil {
		gcc, err := semver.NewVersion(m[1])
		if err != nil {
			return Tag{}, fmt.Errorf("parse gcc version %q: %w", m[1], err)
		}
		rt, _ := strconv.Atoi(m[2])
		rev, _ := strconv.Atoi(m[3])
		return Tag{GCC: gcc, Runtime: rt, Revision: rev, raw: s}, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Tag{}, fmt.Errorf("unrecognized release tag %q", s)
	}
	return Tag{GCC: v, raw: s}, nil
}

func (t Tag) String() string {
	if t.raw != "" {
		return t.raw
	}
	if t.GCC == nil {
		return ""
	}
	return fmt.Sprintf("%s-rt_v%d-rev%d", t.GCC, t.Runtime, t.Revision)
}

// Compare returns -1, 0 or 1.
func (t Tag) Compare(o Tag) int {
	if c := t.GCC.Compare(o.GCC); c != 0 {
		return c
	}
	if c := compareInt(t.Runtime, o.Runtime); c != 0 {
		return c
	}
	return compareInt(t.Revision, o.Revision)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareTags parses and compares two tags.
func CompareTags(a, b string) (int, error) {
	at, err := ParseTag(a)
	if err != nil {
		return 0, err
	}
	bt, err := ParseTag(b)
	if err != nil {
		return 0, err
	}
	return at.Compare(bt), nil
}

// Latest returns the highest comparable tag in tags, or "" if none parse.
func Latest(tags []string) string {
	var (
		best    Tag
		bestRaw string
	)
	for _, s := range tags {
		t, err := ParseTag(s)
		if err != nil {
			continue
		}
		if bestRaw == "" || t.Compare(best) > 0 {
			best, bestRaw = t, s
		}
	}
	return bestRaw
}
