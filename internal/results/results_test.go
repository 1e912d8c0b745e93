package results

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

func matches() []domain.Match {
	return []domain.Match{
		{Path: "/v/b.mkv", Meta: domain.VideoMetadata{Codec: "hevc", FileSizeBytes: 300, Width: 3840, Height: 2160}},
		{Path: "/v/a.mp4", Meta: domain.VideoMetadata{Codec: "h264", FileSizeBytes: 100, Width: 1920, Height: 1080}},
		{Path: "/v/c.avi", Meta: domain.VideoMetadata{Codec: "h264", FileSizeBytes: 200, Width: 640, Height: 480}},
	}
}

func paths(ms []domain.Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Path)
	}
	return out
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	in := matches()

	got, err := Sorted(in, "size", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"/v/a.mp4", "/v/c.avi", "/v/b.mkv"}, paths(got))
	assert.Equal(t, []string{"/v/b.mkv", "/v/a.mp4", "/v/c.avi"}, paths(in), "原始顺序必须保持")

	got, err = Sorted(in, "resolution", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/v/b.mkv", "/v/a.mp4", "/v/c.avi"}, paths(got))
}

func TestSorted_StableOnTies(t *testing.T) {
	got, err := Sorted(matches(), "codec", false)
	require.NoError(t, err)
	// 同为 h264 的两条保持原相对顺序。
	assert.Equal(t, []string{"/v/a.mp4", "/v/c.avi", "/v/b.mkv"}, paths(got))
}

func TestSorted_FormatAndEmptyKey(t *testing.T) {
	got, err := Sorted(matches(), "format", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"/v/c.avi", "/v/b.mkv", "/v/a.mp4"}, paths(got))

	got, err = Sorted(matches(), "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/v/c.avi", "/v/a.mp4", "/v/b.mkv"}, paths(got))
}

func TestSorted_UnknownKey(t *testing.T) {
	_, err := Sorted(matches(), "color", false)
	assert.Error(t, err)
}

func TestSorted_AllKeysKnown(t *testing.T) {
	for _, k := range SortKeys {
		_, err := Sorted(matches(), k, false)
		assert.NoError(t, err, k)
	}
}

func TestResolve(t *testing.T) {
	view := matches()

	m, err := Resolve(view, "2")
	require.NoError(t, err)
	assert.Equal(t, "/v/a.mp4", m.Path)

	m, err = Resolve(view, "/v/c.avi")
	require.NoError(t, err)
	assert.Equal(t, "/v/c.avi", m.Path)

	for _, ref := range []string{"0", "4", "/v/missing.mp4"} {
		_, err = Resolve(view, ref)
		assert.True(t, errors.Is(err, ErrNotFound), ref)
	}
}

func TestResolve_PathBeforeIndex(t *testing.T) {
	named, err := filepath.Abs("3")
	require.NoError(t, err)
	view := append(matches(), domain.Match{Path: named})

	m, err := Resolve(view, "3")
	require.NoError(t, err)
	assert.Equal(t, named, m.Path, "与结果路径相同的引用按路径解析")

	// 没有同名结果时仍按序号解析。
	m, err = Resolve(view, "1")
	require.NoError(t, err)
	assert.Equal(t, "/v/b.mkv", m.Path)
}

func TestRemove(t *testing.T) {
	r := domain.ScanReport{Matches: matches(), Filtered: []string{"/v/x.mp4"}}
	r.Finalize()

	require.NoError(t, Remove(&r, "/v/a.mp4"))
	assert.Equal(t, []string{"/v/b.mkv", "/v/c.avi"}, paths(r.Matches))
	assert.Equal(t, 2, r.Summary.Matched)
	assert.Equal(t, 3, r.Summary.Examined)

	assert.True(t, errors.Is(Remove(&r, "/v/a.mp4"), ErrNotFound))
}
