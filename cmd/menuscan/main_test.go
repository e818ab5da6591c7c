package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, state string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--state", state, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(3, 3, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "menu.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPrefs(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.json")

	out, err := run(t, state, "prefs", "select", "Vegan", "Gluten-free")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Vegan")
	assert.Contains(t, out, `Sent as: "Vegan, Gluten-free"`)

	out, err = run(t, state, "prefs", "add", "no", "cilantro")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] no cilantro")

	out, err = run(t, state, "prefs", "select", "Vegan")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Vegan")

	out, err = run(t, state, "prefs", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] no cilantro", "custom entries survive clear")
	assert.Contains(t, out, `Sent as: ""`)
}

func TestFeedback(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.json")

	out, err := run(t, state, "feedback", "like", "Pad", "Thai")
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai: liked\n", out)

	out, err = run(t, state, "feedback", "dislike", "pad thai")
	require.NoError(t, err)
	assert.Equal(t, "pad thai: disliked\n", out)

	out, err = run(t, state, "feedback", "list")
	require.NoError(t, err)
	assert.Equal(t, "- pad thai\n", out)

	out, err = run(t, state, "feedback", "dislike", "Pad Thai")
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai: unrated\n", out)

	out, err = run(t, state, "feedback", "list")
	require.NoError(t, err)
	assert.Equal(t, "No feedback yet.\n", out)
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.json")
	img := writePNG(t, dir)

	var prefs, liked string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefs = r.FormValue("dietaryPreferences")
		liked = r.FormValue("likedItems")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success": true, "analysis": {"summary": "Two safe dishes.", "suitableItems": [{"name": "Soup", "rating": 4, "reason": "vegan"}], "neutralItems": [], "unsuitableItems": [], "recommendations": [], "menuSections": []}, "originalImage": ""}`)
	}))
	defer srv.Close()

	_, err := run(t, state, "analyze", img, "--server", srv.URL)
	assert.ErrorContains(t, err, "no dietary preferences")

	out, err := run(t, state, "feedback", "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyzed dishes yet")

	_, err = run(t, state, "prefs", "select", "Vegan")
	require.NoError(t, err)
	_, err = run(t, state, "feedback", "like", "Soup")
	require.NoError(t, err)

	out, err = run(t, state, "analyze", img, "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Vegan", prefs)
	assert.Equal(t, "Soup", liked)
	assert.Contains(t, out, "Two safe dishes.")
	assert.Contains(t, out, "★★★★☆  Soup (liked)")

	out, err = run(t, state, "feedback", "recent")
	require.NoError(t, err)
	assert.Regexp(t, `liked\s+Soup`, out)

	_, err = run(t, state, "feedback", "like", "Soup")
	require.NoError(t, err)
	out, err = run(t, state, "feedback", "recent")
	require.NoError(t, err)
	assert.Regexp(t, `unrated\s+Soup`, out)

	out, err = run(t, state, "analyze", img, "--server", srv.URL, "--prefs", "Keto", "--no-feedback", "--json")
	require.NoError(t, err)
	assert.Equal(t, "Keto", prefs)
	assert.Empty(t, liked)
	assert.Contains(t, out, `"summary": "Two safe dishes."`)
}

func TestAnalyze_Unreachable(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := run(t, filepath.Join(dir, "state.json"), "analyze", writePNG(t, dir), "--server", url, "-p", "Vegan")
	assert.ErrorContains(t, err, "please try again")
}

func TestCompress(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir)
	outPath := filepath.Join(dir, "out.png")

	out, err := run(t, filepath.Join(dir, "state.json"), "compress", in, outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already fits")

	a, _ := os.ReadFile(in)
	b, _ := os.ReadFile(outPath)
	assert.Equal(t, a, b)
}

func TestVersion(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "s.json"), "version")
	require.NoError(t, err)
	assert.Equal(t, "menuscan version "+Version+"\n", out)
}
