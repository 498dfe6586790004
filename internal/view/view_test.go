package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/mingwup/internal/model"
)

func entry(version, file string, status model.Status, recommended bool, day int) model.CatalogEntry {
	return model.CatalogEntry{
		ReleaseAsset: model.ReleaseAsset{
			Version:     version,
			Filename:    file,
			PublishedAt: time.Date(2023, time.August, day, 10, 0, 0, 0, time.UTC),
		},
		Status:      status,
		Recommended: recommended,
	}
}

func sample() []model.CatalogEntry {
	return []model.CatalogEntry{
		entry("13.2.0-rt_v11-rev1", "x86_64-13.2.0-release-posix-seh-ucrt-rt_v11-rev1.7z", model.Downloaded, true, 3),
		entry("13.2.0-rt_v11-rev1", "i686-13.2.0-release-posix-dwarf-ucrt-rt_v11-rev1.7z", model.NotDownloaded, false, 3),
		entry("12.2.0-rt_v10-rev2", "x86_64-12.2.0-release-win32-seh-msvcrt-rt_v10-rev2.7z", model.NotDownloaded, false, 1),
	}
}

func files(entries []model.CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Filename
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	t.Parallel()

	in := sample()
	orig := sample()

	assert.Equal(t, in, ApplyFilter(in, ""))
	assert.Empty(t, ApplyFilter(in, "   "), "whitespace is not trimmed")
	assert.Empty(t, ApplyFilter(in, "aarch64"))

	got := ApplyFilter(in, "I686")
	require.Len(t, got, 1)
	assert.Equal(t, in[1], got[0])

	got = ApplyFilter(in, "rt_v10")
	assert.Equal(t, []string{in[2].Filename}, files(got))

	got[0].Status = model.Downloaded
	got[0].Recommended = true
	assert.Equal(t, orig, in, "filter results must not alias input")
}

func TestSortByIsStable(t *testing.T) {
	t.Parallel()

	in := sample()
	asc := SortBy(in, ColumnVersion, false)
	assert.Equal(t, []string{in[2].Filename, in[0].Filename, in[1].Filename}, files(asc))

	desc := SortBy(in, ColumnVersion, true)
	assert.Equal(t, []string{in[0].Filename, in[1].Filename, in[2].Filename}, files(desc))

	byStatus := SortBy(in, ColumnStatus, false)
	assert.Equal(t, model.Downloaded, byStatus[0].Status)

	byDate := SortBy(in, ColumnDate, false)
	assert.Equal(t, in[2].Filename, byDate[0].Filename)

	assert.Equal(t, sample(), in)
}

func TestSorterToggle(t *testing.T) {
	t.Parallel()

	var s Sorter
	assert.Equal(t, sample(), s.Apply(sample()))

	s.Toggle(ColumnFile)
	assert.False(t, s.Descending)
	s.Toggle(ColumnFile)
	assert.True(t, s.Descending)
	s.Toggle(ColumnFile)
	assert.False(t, s.Descending)

	s.Toggle(ColumnFile)
	s.Toggle(ColumnDate)
	assert.Equal(t, ColumnDate, s.Column)
	assert.False(t, s.Descending, "new column starts ascending")
}

func TestProjectReflectsLatestSnapshot(t *testing.T) {
	t.Parallel()

	v := View{Query: "x86_64", RecommendedOnly: true}
	snap := sample()
	require.Len(t, v.Project(snap), 1)

	snap[0].Status = model.NotDownloaded
	snap[2].Recommended = true
	rows := v.Project(snap)
	require.Len(t, rows, 2)
	assert.Equal(t, model.NotDownloaded, rows[0].Status)
}

func TestDisplayText(t *testing.T) {
	t.Parallel()

	e := sample()[1]
	assert.Equal(t, "13.2.0-rt_v11-rev1", DisplayText(e, ColumnVersion))
	assert.Equal(t, "Not Downloaded", DisplayText(e, ColumnStatus))
	assert.Equal(t, "2023-08-03", DisplayText(e, ColumnDate))
	assert.Equal(t, "", DisplayText(model.CatalogEntry{}, ColumnDate))
}

func TestParseColumn(t *testing.T) {
	t.Parallel()

	c, err := ParseColumn(" Date ")
	require.NoError(t, err)
	assert.Equal(t, ColumnDate, c)
	assert.Equal(t, "Date", c.Title())

	_, err = ParseColumn("size")
	assert.Error(t, err)
}
