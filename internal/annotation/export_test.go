package annotation

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLabelFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lines := []Line{
		{ClassID: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.25, Height: 0.25},
		{ClassID: 3, XCenter: 0.1, YCenter: 0.9, Width: 0.05, Height: 0.1},
	}

	path, err := ExportLabelFile(dir, "img0", lines)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "img0.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, got, 2)
	assert.Equal(t, lines[0].Format(), got[0])
	assert.Equal(t, lines[1].Format(), got[1])
}

func TestExportLabelFileRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := ExportLabelFile(t.TempDir(), "img0", nil)
	require.Error(t, err)
}

func TestExportLabelFileCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "exports", "yolo")
	_, err := ExportLabelFile(dir, "img1", []Line{{ClassID: 1, XCenter: 0.5, YCenter: 0.5, Width: 0.5, Height: 0.5}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "img1.txt"))
}

func TestImageSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sample.png")
	writeTestPNG(t, path, 320, 240)

	w, h, err := ImageSize(path)
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestImageSizeErrors(t *testing.T) {
	t.Parallel()

	_, _, err := ImageSize(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0o644))
	_, _, err = ImageSize(bogus)
	require.Error(t, err)
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}
