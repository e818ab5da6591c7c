package menu

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/llm"
	"github.com/maxpollack/Menu/internal/logging"
	"github.com/maxpollack/Menu/internal/preferences"
)

// --------------------------------------------------
// Test doubles
// --------------------------------------------------

type collaboratorCall struct {
	img      llm.Image
	prompt   string
	deadline time.Time
}

type fakeCollaborator struct {
	mu    sync.Mutex
	calls []collaboratorCall
	reply string
	err   error
}

func (f *fakeCollaborator) Analyze(ctx context.Context, img llm.Image, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deadline, _ := ctx.Deadline()
	f.calls = append(f.calls, collaboratorCall{img: img, prompt: prompt, deadline: deadline})
	return f.reply, f.err
}

func (f *fakeCollaborator) Calls() []collaboratorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]collaboratorCall(nil), f.calls...)
}

const schemaReply = `Here is the analysis:
{"summary": "Good fit", "overallCompatibility": 4,
 "suitableItems": [{"name": "Greek Salad", "rating": 5, "reason": "vegetarian"}],
 "unsuitableItems": [{"name": "Lamb Gyro", "rating": 1, "reason": "meat"}]}`

// noisyPNG produces a high-entropy PNG, roughly 3 bytes per pixel.
func noisyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(t testing.TB, collab llm.Client, budget imagebudget.Budget) *Service {
	t.Helper()
	compressor, err := imagebudget.New(imagebudget.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return NewService(compressor, collab, ServiceConfig{
		Budget:   budget,
		Timeout:  5 * time.Second,
		Provider: "fake",
	}, nil, logging.Discard())
}

func upload(img []byte, prefs ...string) Upload {
	return Upload{Image: img, Preferences: prefs}
}

// --------------------------------------------------
// Tests
// --------------------------------------------------

func TestService_SmallImagePassesThroughUnchanged(t *testing.T) {
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, imagebudget.ServerBudget)
	img := noisyPNG(t, 64, 64)

	out, err := svc.Analyze(context.Background(), upload(img, "Vegetarian", "Nut-free"))
	require.NoError(t, err)

	calls := collab.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, img, calls[0].img.Data)
	assert.Equal(t, "image/png", calls[0].img.MediaType)
	assert.Contains(t, calls[0].prompt, "Vegetarian, Nut-free")
	assert.NotContains(t, calls[0].prompt, "Learned preferences")

	assert.Nil(t, out.Compression)
	assert.Equal(t, "Good fit", out.Result.Summary)
	assert.False(t, out.Result.IsRaw())
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(img), out.DataURI())
}

func TestService_CompressesOverBudget(t *testing.T) {
	budget := imagebudget.Budget{HardLimit: 256 << 10, Margin: 64 << 10}
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, budget)
	img := noisyPNG(t, 400, 400)
	require.Greater(t, len(img), budget.Target())

	out, err := svc.Analyze(context.Background(), upload(img, "Keto"))
	require.NoError(t, err)

	calls := collab.Calls()
	require.Len(t, calls, 1)
	sent := calls[0].img
	assert.LessOrEqual(t, len(sent.Data), budget.Target())
	assert.True(t, budget.FitsEncoded(len(sent.Data)))
	assert.Equal(t, imagebudget.OutputMediaType, sent.MediaType)

	require.NotNil(t, out.Compression)
	assert.Equal(t, len(img), out.Compression.OriginalBytes)
	assert.Equal(t, len(sent.Data), out.Compression.FinalBytes)

	uri := out.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	assert.Equal(t, sent.Data, decoded, "data URI must carry the bytes that were sent")
}

func TestService_TwelveMegabytePhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("encodes a 12 MB photo")
	}
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, imagebudget.ServerBudget)
	img := noisyPNG(t, 2000, 2000)
	require.Greater(t, len(img), 11<<20)

	_, err := svc.Analyze(context.Background(), upload(img, "Vegan"))
	require.NoError(t, err)

	calls := collab.Calls()
	require.Len(t, calls, 1)
	assert.LessOrEqual(t, len(calls[0].img.Data), imagebudget.ServerBudget.Target())
	assert.LessOrEqual(t, imagebudget.EncodedLen(len(calls[0].img.Data)), 5<<20)
}

func TestService_RejectsBeforeCallingOut(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"no image", Upload{Preferences: []string{"Vegan"}}, ErrMissingImage},
		{"no preferences", Upload{Image: []byte{0x89, 'P', 'N', 'G'}}, ErrMissingPreferences},
		{"not an image", upload([]byte("just some text, not a photo"), "Vegan"), imagebudget.ErrInvalidImage},
		{"declared image but html", Upload{Image: []byte("<html><body>menu</body></html>"), DeclaredType: "image/png", Preferences: []string{"Vegan"}}, imagebudget.ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := &fakeCollaborator{reply: schemaReply}
			svc := newTestService(t, collab, imagebudget.ServerBudget)

			_, err := svc.Analyze(context.Background(), tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, collab.Calls())
		})
	}
}

func TestService_CompressionExhausted(t *testing.T) {
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, imagebudget.Budget{HardLimit: 200, Margin: 100})

	_, err := svc.Analyze(context.Background(), upload(noisyPNG(t, 400, 400), "Vegan"))
	assert.ErrorIs(t, err, imagebudget.ErrCompressionExhausted)
	assert.Empty(t, collab.Calls())
}

func TestService_ProseResponseFallsBackToRaw(t *testing.T) {
	prose := "Sorry, the photo is too blurry to read the prices, but the soups look vegetarian."
	collab := &fakeCollaborator{reply: prose}
	svc := newTestService(t, collab, imagebudget.ServerBudget)

	out, err := svc.Analyze(context.Background(), upload(noisyPNG(t, 32, 32), "Vegetarian"))
	require.NoError(t, err)

	assert.Equal(t, prose, out.Result.RawResponse)
	assert.Empty(t, out.Result.SuitableItems)
	assert.NotNil(t, out.Result.SuitableItems)
}

func TestService_CollaboratorFailure(t *testing.T) {
	collab := &fakeCollaborator{err: errors.New("connection reset")}
	svc := newTestService(t, collab, imagebudget.ServerBudget)

	_, err := svc.Analyze(context.Background(), upload(noisyPNG(t, 32, 32), "Halal"))
	assert.ErrorIs(t, err, llm.ErrCollaboratorCallFailed)
	assert.ErrorContains(t, err, "connection reset")
}

func TestService_CallIsBoundedByTimeout(t *testing.T) {
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, imagebudget.ServerBudget)

	before := time.Now()
	_, err := svc.Analyze(context.Background(), upload(noisyPNG(t, 32, 32), "Kosher"))
	require.NoError(t, err)

	calls := collab.Calls()
	require.Len(t, calls, 1)
	require.False(t, calls[0].deadline.IsZero())
	assert.WithinDuration(t, before.Add(5*time.Second), calls[0].deadline, 2*time.Second)
}

func TestService_FeedbackShapesPrompt(t *testing.T) {
	collab := &fakeCollaborator{reply: schemaReply}
	svc := newTestService(t, collab, imagebudget.ServerBudget)

	up := upload(noisyPNG(t, 32, 32), "Vegetarian")
	up.Feedback = preferences.ParseFeedback("Falafel, Hummus", "hummus, Tabbouleh")

	_, err := svc.Analyze(context.Background(), up)
	require.NoError(t, err)

	prompt := collab.Calls()[0].prompt
	assert.Contains(t, prompt, "They enjoyed: Falafel.")
	assert.Contains(t, prompt, "They did not enjoy: hummus, Tabbouleh.")
}

func TestUpload_RequestUsesFinalImage(t *testing.T) {
	up := upload([]byte("original"), "Vegan", "Halal")
	up.Feedback = preferences.ParseFeedback("Dal, Naan", "naan")

	req := up.request([]byte("compressed"), imagebudget.OutputMediaType)

	assert.Equal(t, []byte("compressed"), req.Image)
	assert.Equal(t, imagebudget.OutputMediaType, req.MediaType)
	assert.Equal(t, []string{"Vegan", "Halal"}, req.DietaryPreferences)
	assert.Equal(t, []string{"Dal"}, req.LikedItems)
	assert.Equal(t, []string{"naan"}, req.DislikedItems)
}
