package envpath

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/mingwup/internal/model"
)

type fakeStore struct {
	value    string
	writes   int
	notifies int
	readErr  error
}

func (f *fakeStore) ReadPath() (string, error) { return f.value, f.readErr }
func (f *fakeStore) WritePath(v string) error  { f.value = v; f.writes++; return nil }
func (f *fakeStore) Notify() error             { f.notifies++; return nil }
func (f *fakeStore) Separator() string         { return ";" }

func TestAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &fakeStore{value: `C:\Windows;C:\Tools\`}

	changed, err := Append(s, `C:\mingw64\bin`)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `C:\Windows;C:\Tools\;C:\mingw64\bin`, s.value)
	assert.Equal(t, 1, s.notifies)

	changed, err = Append(s, `C:\mingw64\bin`)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, s.writes)
	assert.Equal(t, 1, s.notifies)
}

func TestAppendReadError(t *testing.T) {
	t.Parallel()

	s := &fakeStore{readErr: model.E(model.KindRegistry, "read Path", errors.New("access denied"))}
	_, err := Append(s, `C:\mingw64\bin`)
	assert.True(t, errors.Is(err, model.ErrRegistry), "got %v", err)
	assert.Zero(t, s.writes)
}

func TestContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list string
		dir  string
		fold bool
		want bool
	}{
		{"exact", `C:\a;C:\mingw64\bin`, `C:\mingw64\bin`, false, true},
		{"trailing slash", `C:\mingw64\bin\`, `C:\mingw64\bin`, false, true},
		{"quoted", `"C:\mingw64\bin";C:\a`, `C:\mingw64\bin`, false, true},
		{"case folded", `c:\MinGW64\BIN`, `C:\mingw64\bin`, true, true},
		{"case sensitive", `c:\MinGW64\BIN`, `C:\mingw64\bin`, false, false},
		{"empty entries", `;;`, `C:\mingw64\bin`, true, false},
		{"prefix only", `C:\mingw64\bin2`, `C:\mingw64\bin`, true, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Contains(tc.list, tc.dir, ";", tc.fold))
		})
	}
}

func TestAppendEntryToEmptyList(t *testing.T) {
	t.Parallel()

	got, changed := appendEntry("", "/opt/mingw64/bin", ":", false)
	assert.True(t, changed)
	assert.Equal(t, "/opt/mingw64/bin", got)

	got, changed = appendEntry("/a:", "/b", ":", false)
	assert.True(t, changed)
	assert.Equal(t, "/a:/b", got)
}

func TestProfileBlock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".profile")
	require.NoError(t, os.WriteFile(path, []byte("export EDITOR=vi\n"), 0o644))
	p := &Profile{Path: path}

	v, err := p.ReadPath()
	require.NoError(t, err)
	assert.Empty(t, v)

	changed, err := Append(p, "/home/u/mingw64/bin")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = Append(p, "/home/u/mingw64/bin")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = Append(p, "/opt/other/bin")
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export EDITOR=vi\n\n"+
		blockStart+"\n"+
		`export PATH="/home/u/mingw64/bin:/opt/other/bin:$PATH"`+"\n"+
		blockEnd+"\n", string(data))

	v, err = p.ReadPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/mingw64/bin:/opt/other/bin", v)

	require.NoError(t, p.WritePath(""))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export EDITOR=vi\n", string(data))
}

func TestProfileCreatedWhenMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "home", ".profile")
	p := &Profile{Path: path}

	changed, err := Append(p, "/m/bin")
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, blockStart+"\nexport PATH=\"/m/bin:$PATH\"\n"+blockEnd+"\n", string(data))
}
