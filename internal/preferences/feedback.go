package preferences

import "strings"

// Status is a dish's feedback state.
type Status int

const (
	Unrated Status = iota
	Liked
	Disliked
)

func (s Status) String() string {
	switch s {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "unrated"
	}
}

// Feedback holds the diner's liked and disliked dishes. An item is never in
// both sets; names compare case-insensitively.
type Feedback struct {
	liked    []string
	disliked []string
}

// ParseFeedback builds Feedback from the comma-joined form fields. An item
// listed on both sides is kept only as disliked.
func ParseFeedback(liked, disliked string) Feedback {
	var f Feedback
	for _, item := range SplitList(liked) {
		f.Like(item)
	}
	for _, item := range SplitList(disliked) {
		f.Dislike(item)
	}
	return f
}

func LoadFeedback(s Store) (Feedback, error) {
	liked, err := loadList(s, KeyLikedItems)
	if err != nil {
		return Feedback{}, err
	}
	disliked, err := loadList(s, KeyDislikedItems)
	if err != nil {
		return Feedback{}, err
	}
	// Stored state may predate the exclusivity rule.
	var f Feedback
	for _, item := range liked {
		f.Like(item)
	}
	for _, item := range disliked {
		f.Dislike(item)
	}
	return f, nil
}

func (f Feedback) Save(s Store) error {
	if err := saveList(s, KeyLikedItems, f.liked); err != nil {
		return err
	}
	return saveList(s, KeyDislikedItems, f.disliked)
}

func (f *Feedback) Like(item string) {
	item = strings.TrimSpace(item)
	f.disliked = without(f.disliked, item)
	f.liked = appendUnique(f.liked, item)
}

func (f *Feedback) Dislike(item string) {
	item = strings.TrimSpace(item)
	f.liked = without(f.liked, item)
	f.disliked = appendUnique(f.disliked, item)
}

// ToggleLike un-likes a liked item, otherwise likes it.
func (f *Feedback) ToggleLike(item string) {
	item = strings.TrimSpace(item)
	if contains(f.liked, item) {
		f.liked = without(f.liked, item)
		return
	}
	f.Like(item)
}

// ToggleDislike un-dislikes a disliked item, otherwise dislikes it.
func (f *Feedback) ToggleDislike(item string) {
	item = strings.TrimSpace(item)
	if contains(f.disliked, item) {
		f.disliked = without(f.disliked, item)
		return
	}
	f.Dislike(item)
}

// Forget drops any feedback on item.
func (f *Feedback) Forget(item string) {
	item = strings.TrimSpace(item)
	f.liked = without(f.liked, item)
	f.disliked = without(f.disliked, item)
}

func (f *Feedback) Clear() {
	f.liked = nil
	f.disliked = nil
}

func (f Feedback) StatusOf(item string) Status {
	item = strings.TrimSpace(item)
	switch {
	case contains(f.liked, item):
		return Liked
	case contains(f.disliked, item):
		return Disliked
	default:
		return Unrated
	}
}

func (f Feedback) Liked() []string {
	return append([]string(nil), f.liked...)
}

func (f Feedback) Disliked() []string {
	return append([]string(nil), f.disliked...)
}

func (f Feedback) Empty() bool {
	return len(f.liked) == 0 && len(f.disliked) == 0
}

// LoadRecent returns the dishes seen in the last analysis, in display order.
func LoadRecent(s Store) ([]string, error) {
	return loadList(s, KeyRecentItems)
}

// SaveRecent replaces the remembered dishes. Duplicates are dropped.
func SaveRecent(s Store, items []string) error {
	var list []string
	for _, item := range items {
		list = appendUnique(list, strings.TrimSpace(item))
	}
	return saveList(s, KeyRecentItems, list)
}
