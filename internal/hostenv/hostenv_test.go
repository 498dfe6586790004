package hostenv

import (
	"testing"

	"github.com/3leaps/mingwup/internal/model"
)

func TestFromMachine(t *testing.T) {
	t.Parallel()

	host64 := model.HostDescriptor{Architecture: model.ArchX86_64, WordSize: 64}
	host32 := model.HostDescriptor{Architecture: model.ArchI686, WordSize: 32}

	tests := []struct {
		machine string
		want    model.HostDescriptor
	}{
		{"x86_64", host64},
		{"AMD64", host64},
		{"amd64", host64},
		{"aarch64", host64},
		{"i686", host32},
		{"i386", host32},
		{"386", host32},
		{"", host32},
	}
	for _, tc := range tests {
		if got := FromMachine(tc.machine); got != tc.want {
			t.Fatalf("FromMachine(%q): got %+v want %+v", tc.machine, got, tc.want)
		}
	}
}

func TestDetectIsStable(t *testing.T) {
	t.Parallel()

	first := Detect()
	if first.WordSize != 32 && first.WordSize != 64 {
		t.Fatalf("unexpected word size %d", first.WordSize)
	}
	if again := Detect(); again != first {
		t.Fatalf("Detect changed: %+v then %+v", first, again)
	}
}

func TestMountinfoLongestMatchWins(t *testing.T) {
	t.Parallel()

	content := `36 25 0:32 / / rw,relatime - overlay overlay rw,noexec
40 36 0:45 / /home rw,relatime - ext4 /dev/sda rw
41 40 0:46 / /home/user rw,relatime - ext4 /dev/sda rw,noexec
`
	mounts := parseMountinfo(content)
	if len(mounts) != 3 {
		t.Fatalf("expected 3 mounts, got %d", len(mounts))
	}

	tests := []struct {
		path      string
		wantPoint string
		noexec    bool
	}{
		{"/tmp/bin", "/", true},
		{"/home/other/bin", "/home", false},
		{"/home/user/bin", "/home/user", true},
		{"/home/username", "/home", false},
	}
	for _, tc := range tests {
		m, ok := governingMount(tc.path, mounts)
		if !ok {
			t.Fatalf("%s: no mount found", tc.path)
		}
		if m.point != tc.wantPoint || m.has("noexec") != tc.noexec {
			t.Fatalf("%s: got %s noexec=%v want %s noexec=%v", tc.path, m.point, m.has("noexec"), tc.wantPoint, tc.noexec)
		}
	}
}

func TestProcMounts(t *testing.T) {
	t.Parallel()

	content := `/dev/sda1 / ext4 rw,relatime,noexec 0 0
/dev/sda2 /home ext4 rw,relatime 0 0
tmpfs /tmp tmpfs rw,nosuid,nodev,noexec 0 0
`
	mounts := parseProcMounts(content)
	if len(mounts) != 3 {
		t.Fatalf("expected 3 mounts, got %d", len(mounts))
	}
	if m, _ := governingMount("/tmp/mingw64", mounts); !m.has("noexec") {
		t.Fatalf("expected /tmp/mingw64 to be noexec")
	}
	if m, _ := governingMount("/home/user/mingw64", mounts); m.has("noexec") {
		t.Fatalf("expected /home/user/mingw64 to be exec")
	}
}

func TestUnescapedMountPoint(t *testing.T) {
	t.Parallel()

	mounts := parseMountinfo(`1 2 3:4 / /path\040with\040space rw,relatime - ext4 /dev/sda rw,noexec
`)
	if len(mounts) != 1 {
		t.Fatalf("expected 1 mount, got %d", len(mounts))
	}
	if got := mounts[0].point; got != "/path with space" {
		t.Fatalf("mount point unescape: got %q", got)
	}
	if m, ok := governingMount("/path with space/bin", mounts); !ok || !m.has("noexec") {
		t.Fatalf("expected /path with space/bin to be noexec")
	}
}

func TestMountsGarbage(t *testing.T) {
	t.Parallel()

	if _, ok := governingMount("/tmp", nil); ok {
		t.Fatalf("expected no mount")
	}
	if mounts := parseMountinfo("garbage\n1 2 3"); len(mounts) != 0 {
		t.Fatalf("expected no mounts, got %d", len(mounts))
	}
	if _, noexec := NoExecMount(""); noexec {
		t.Fatalf("empty path must not be noexec")
	}
}
