package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Request is one user submission: the menu photo plus what the diner wants.
// LikedItems and DislikedItems never share a member.
type Request struct {
	Image              []byte
	MediaType          string
	DietaryPreferences []string
	LikedItems         []string
	DislikedItems      []string
}

// Result is the normalized analysis returned to clients.
type Result struct {
	SchemaVersion        string           `json:"schemaVersion,omitempty"`
	Summary              string           `json:"summary"`
	OverallCompatibility Score            `json:"overallCompatibility"`
	SuitableItems        []Item           `json:"suitableItems"`
	NeutralItems         []Item           `json:"neutralItems"`
	UnsuitableItems      []Item           `json:"unsuitableItems"`
	Recommendations      []Recommendation `json:"recommendations"`
	MenuSections         []Section        `json:"menuSections"`

	// RawResponse is set only when the collaborator output could not be parsed.
	RawResponse string `json:"rawResponse,omitempty"`
}

type Item struct {
	Name     string `json:"name"`
	Rating   Rating `json:"rating"`
	Reason   string `json:"reason"`
	Location string `json:"location,omitempty"`
	BBox     *BBox  `json:"bbox,omitempty"`
}

// BBox locates an item on the photo, in percent of width and height.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Recommendation struct {
	Name   string `json:"name"`
	Rating Rating `json:"rating"`
	Reason string `json:"reason"`
}

type Section struct {
	Section       string `json:"section"`
	Compatibility Label  `json:"compatibility"`
	Description   string `json:"description"`
}

// IsRaw reports whether r is the raw-text fallback envelope.
func (r Result) IsRaw() bool {
	return r.RawResponse != ""
}

func (r Result) withDefaults() Result {
	if r.SuitableItems == nil {
		r.SuitableItems = []Item{}
	}
	if r.NeutralItems == nil {
		r.NeutralItems = []Item{}
	}
	if r.UnsuitableItems == nil {
		r.UnsuitableItems = []Item{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.MenuSections == nil {
		r.MenuSections = []Section{}
	}
	return r
}

// Rating is a 1-5 star score. Models emit it as a number or a numeric string,
// sometimes fractional; it is rounded and clamped. Zero means not rated.
type Rating int

func (r *Rating) UnmarshalJSON(b []byte) error {
	f, ok, err := lenientNumber(b)
	if err != nil || !ok {
		return err
	}
	if f == 0 {
		*r = 0
		return nil
	}
	*r = Rating(clamp(math.Round(f), 1, 5))
	return nil
}

// Score is the 1.0-5.0 overall compatibility. Zero means not reported.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	f, ok, err := lenientNumber(b)
	if err != nil || !ok {
		return err
	}
	if f == 0 {
		*s = 0
		return nil
	}
	*s = Score(clamp(f, 1, 5))
	return nil
}

// Label accepts either a JSON string or a bare number.
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = Label(n.String())
	return nil
}

func lenientNumber(b []byte) (float64, bool, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return 0, false, nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, false, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			// "N/A" and friends mean unrated rather than a broken document.
			return 0, false, nil
		}
		return f, true, nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, false, err
	}
	return f, true, nil
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
