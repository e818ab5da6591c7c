package preferences

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Vegan", "Nut-free"}, SplitList(" Vegan, ,Nut-free,, vegan "))
	assert.Empty(t, SplitList(""))
	assert.Empty(t, SplitList(" , ,"))
}

func TestFeedback_LikeAndDislikeAreExclusive(t *testing.T) {
	var f Feedback

	f.Like("Pad Thai")
	assert.Equal(t, Liked, f.StatusOf("Pad Thai"))

	f.Dislike("pad thai")
	assert.Equal(t, Disliked, f.StatusOf("Pad Thai"))
	assert.Empty(t, f.Liked())
	assert.Equal(t, []string{"pad thai"}, f.Disliked())

	f.Like("Pad Thai")
	assert.Equal(t, []string{"Pad Thai"}, f.Liked())
	assert.Empty(t, f.Disliked())
}

func TestFeedback_ToggleTwiceRestoresMembership(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *Feedback)
		toggle func(f *Feedback, item string)
	}{
		{"like from unrated", func(f *Feedback) {}, (*Feedback).ToggleLike},
		{"like from liked", func(f *Feedback) { f.Like("Dal") }, (*Feedback).ToggleLike},
		{"dislike from unrated", func(f *Feedback) {}, (*Feedback).ToggleDislike},
		{"dislike from disliked", func(f *Feedback) { f.Dislike("Dal") }, (*Feedback).ToggleDislike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Feedback
			f.Like("Naan")
			f.Dislike("Vindaloo")
			tt.setup(&f)
			before := f.StatusOf("Dal")

			tt.toggle(&f, "Dal")
			assert.NotEqual(t, before, f.StatusOf("Dal"))
			tt.toggle(&f, "Dal")

			assert.Equal(t, before, f.StatusOf("Dal"))
			assert.Equal(t, Liked, f.StatusOf("Naan"))
			assert.Equal(t, Disliked, f.StatusOf("Vindaloo"))
		})
	}
}

func TestFeedback_ToggleLikeMovesOutOfDisliked(t *testing.T) {
	var f Feedback
	f.Dislike("Tofu")

	f.ToggleLike("Tofu")
	assert.Equal(t, Liked, f.StatusOf("Tofu"))

	f.ToggleLike("Tofu")
	assert.Equal(t, Unrated, f.StatusOf("Tofu"))
}

func TestParseFeedback_DislikedWins(t *testing.T) {
	f := ParseFeedback("Burger, Fries, Salad", "fries, Soup")

	assert.Equal(t, []string{"Burger", "Salad"}, f.Liked())
	assert.Equal(t, []string{"fries", "Soup"}, f.Disliked())
}

func TestFeedback_SaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	var f Feedback
	f.Like("Ramen")
	f.Like("Gyoza")
	f.Dislike("Natto")
	require.NoError(t, f.Save(store))

	got, err := LoadFeedback(store)
	require.NoError(t, err)
	assert.Equal(t, f.Liked(), got.Liked())
	assert.Equal(t, f.Disliked(), got.Disliked())

	got.Clear()
	require.NoError(t, got.Save(store))
	_, ok, err := store.Get(KeyLikedItems)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadFeedback_RepairsOverlapAndCorruption(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyLikedItems, `["Curry","Rice"]`))
	require.NoError(t, store.Set(KeyDislikedItems, `["rice"]`))

	f, err := LoadFeedback(store)
	require.NoError(t, err)
	assert.Equal(t, []string{"Curry"}, f.Liked())
	assert.Equal(t, Disliked, f.StatusOf("Rice"))

	require.NoError(t, store.Set(KeyLikedItems, `not json`))
	f, err = LoadFeedback(store)
	require.NoError(t, err)
	assert.Empty(t, f.Liked())
}

func TestSelection(t *testing.T) {
	var sel Selection

	sel.Toggle("Vegan")
	sel.Toggle("Keto")
	sel.AddCustom("Low-FODMAP")
	assert.Equal(t, "Vegan, Keto, Low-FODMAP", sel.Joined())
	assert.Equal(t, []string{"Low-FODMAP"}, sel.Custom())

	sel.Toggle("Keto")
	assert.False(t, sel.IsSelected("Keto"))

	sel.AddCustom("Vegetarian")
	assert.Equal(t, []string{"Low-FODMAP"}, sel.Custom())
	assert.True(t, sel.IsSelected("Vegetarian"))

	sel.RemoveCustom("low-fodmap")
	assert.Empty(t, sel.Custom())
	assert.Equal(t, []string{"Vegan", "Vegetarian"}, sel.Selected())

	assert.Len(t, sel.Suggestions(), len(Presets))
}

func TestSelection_SaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	var sel Selection
	sel.Toggle("Halal")
	sel.AddCustom("No mushrooms")
	require.NoError(t, sel.Save(store))

	got, err := LoadSelection(store)
	require.NoError(t, err)
	assert.Equal(t, sel.Selected(), got.Selected())
	assert.Equal(t, sel.Custom(), got.Custom())

	got.Clear()
	assert.Empty(t, got.Joined())
	assert.Equal(t, []string{"No mushrooms"}, got.Custom())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	_, ok, err := store.Get(KeyLikedItems)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyLikedItems, `["Pho"]`))
	require.NoError(t, store.Set(KeySelectedPreferences, `["Vegan"]`))

	reopened := NewFileStore(path)
	v, ok, err := reopened.Get(KeyLikedItems)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["Pho"]`, v)

	require.NoError(t, reopened.Remove(KeyLikedItems))
	_, ok, err = store.Get(KeyLikedItems)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	_, _, err := NewFileStore(path).Get(KeyLikedItems)
	assert.Error(t, err)
}

func TestRecentItems(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, SaveRecent(s, []string{"Dal", " dal ", "Naan", ""}))
	got, err := LoadRecent(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dal", "Naan"}, got)

	require.NoError(t, SaveRecent(s, nil))
	got, err = LoadRecent(s)
	require.NoError(t, err)
	assert.Empty(t, got)
}
