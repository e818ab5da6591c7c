package menu

import (
	"encoding/base64"

	"github.com/maxpollack/Menu/internal/analysis"
	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/preferences"
)

// Upload is one analyze request as received from the form.
type Upload struct {
	Image        []byte
	DeclaredType string
	Preferences  []string
	Feedback     preferences.Feedback
}

// request is what the collaborator is asked about once the image is final.
func (u Upload) request(image []byte, mediaType string) analysis.Request {
	return analysis.Request{
		Image:              image,
		MediaType:          mediaType,
		DietaryPreferences: u.Preferences,
		LikedItems:         u.Feedback.Liked(),
		DislikedItems:      u.Feedback.Disliked(),
	}
}

// Compression describes the ladder rung that made the photo fit.
type Compression struct {
	OriginalBytes int     `json:"originalBytes"`
	FinalBytes    int     `json:"finalBytes"`
	Scale         float64 `json:"scale"`
	Quality       int     `json:"quality"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

func compressionFrom(r *imagebudget.Result) *Compression {
	if r == nil || !r.Compressed {
		return nil
	}
	return &Compression{
		OriginalBytes: r.OriginalSize,
		FinalBytes:    len(r.Data),
		Scale:         r.Attempt.Scale,
		Quality:       r.Attempt.Quality,
		Width:         r.Width,
		Height:        r.Height,
	}
}

// Analysis is the outcome of Service.Analyze. Image holds the bytes that were
// actually sent to the collaborator.
type Analysis struct {
	Result      analysis.Result
	Image       []byte
	MediaType   string
	Compression *Compression
}

// DataURI renders the sent image for the client to display.
func (a *Analysis) DataURI() string {
	return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Image)
}

// Response is the 200 body of POST /api/analyze-menu.
type Response struct {
	Success       bool            `json:"success"`
	Analysis      analysis.Result `json:"analysis"`
	OriginalImage string          `json:"originalImage"`
	Compression   *Compression    `json:"compression,omitempty"`
}

// ErrorResponse is every non-200 body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
