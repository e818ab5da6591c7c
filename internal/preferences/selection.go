package preferences

import "strings"

// Presets are the suggestions offered before the user types anything.
var Presets = []string{
	"Vegetarian",
	"Vegan",
	"Gluten-free",
	"Dairy-free",
	"Keto",
	"Low-carb",
	"Halal",
	"Kosher",
	"Nut-free",
	"Shellfish-free",
}

// Selection is the set of active dietary preferences plus the user's own
// suggestions. Selected keeps insertion order, which is the order sent to
// the server.
type Selection struct {
	selected []string
	custom   []string
}

func LoadSelection(s Store) (Selection, error) {
	selected, err := loadList(s, KeySelectedPreferences)
	if err != nil {
		return Selection{}, err
	}
	custom, err := loadList(s, KeyCustomPreferences)
	if err != nil {
		return Selection{}, err
	}
	var sel Selection
	for _, c := range custom {
		sel.custom = appendUnique(sel.custom, strings.TrimSpace(c))
	}
	for _, p := range selected {
		sel.selected = appendUnique(sel.selected, strings.TrimSpace(p))
	}
	return sel, nil
}

func (sel Selection) Save(s Store) error {
	if err := saveList(s, KeySelectedPreferences, sel.selected); err != nil {
		return err
	}
	return saveList(s, KeyCustomPreferences, sel.custom)
}

// Toggle selects pref, or deselects it when already selected.
func (sel *Selection) Toggle(pref string) {
	pref = strings.TrimSpace(pref)
	if contains(sel.selected, pref) {
		sel.selected = without(sel.selected, pref)
		return
	}
	sel.selected = appendUnique(sel.selected, pref)
}

func (sel *Selection) Select(pref string) {
	sel.selected = appendUnique(sel.selected, strings.TrimSpace(pref))
}

func (sel *Selection) Deselect(pref string) {
	sel.selected = without(sel.selected, strings.TrimSpace(pref))
}

// AddCustom remembers a user-defined preference and selects it. Presets are
// selected but not duplicated into the custom list.
func (sel *Selection) AddCustom(pref string) {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return
	}
	if !contains(Presets, pref) {
		sel.custom = appendUnique(sel.custom, pref)
	}
	sel.Select(pref)
}

// RemoveCustom forgets a user-defined preference and deselects it.
func (sel *Selection) RemoveCustom(pref string) {
	pref = strings.TrimSpace(pref)
	sel.custom = without(sel.custom, pref)
	sel.Deselect(pref)
}

// Clear deselects everything; custom suggestions are kept.
func (sel *Selection) Clear() {
	sel.selected = nil
}

func (sel Selection) IsSelected(pref string) bool {
	return contains(sel.selected, strings.TrimSpace(pref))
}

func (sel Selection) Selected() []string {
	return append([]string(nil), sel.selected...)
}

func (sel Selection) Custom() []string {
	return append([]string(nil), sel.custom...)
}

// Suggestions is the presets followed by custom entries.
func (sel Selection) Suggestions() []string {
	out := make([]string, 0, len(Presets)+len(sel.custom))
	out = append(out, Presets...)
	return append(out, sel.custom...)
}

// Joined is the comma-joined form field value.
func (sel Selection) Joined() string {
	return JoinList(sel.selected)
}
