package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
)

type fakeClient struct {
	reqs []anthropic.MessagesRequest
	text string
	err  error
}

func (f *fakeClient) CreateMessages(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return anthropic.MessagesResponse{}, f.err
	}
	return anthropic.MessagesResponse{
		Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(f.text)},
	}, nil
}

func newTestBackend(fc *fakeClient) *Backend {
	b := New(Config{APIKey: "test-key", RequestsPerMinute: 6000})
	b.newClient = func(string) messagesClient { return fc }
	return b
}

func TestBackend_Available_NoAPIKey(t *testing.T) {
	b := New(Config{})

	assert.ErrorIs(t, b.Available(context.Background()), ErrMissingAPIKey)

	_, err := b.Load(context.Background(), backend.LoadOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestBackend_Defaults(t *testing.T) {
	b := New(Config{APIKey: "k"})

	assert.Equal(t, "anthropic", b.Name())
	assert.Equal(t, anthropic.ModelClaude3Dot5Sonnet20240620, b.config.Model)
	assert.Equal(t, 50, b.config.RequestsPerMinute)
}

func TestHandle_Generate_ZeroTemperature(t *testing.T) {
	fc := &fakeClient{text: "வணக்கம்"}
	b := newTestBackend(fc)
	b.config.Temperature = 0

	h, err := b.Load(context.Background(), backend.LoadOptions{})
	require.NoError(t, err)
	_, err = h.Generate(context.Background(), "en: hello", backend.GenerateOptions{SourceLang: "en", TargetLang: "ta"})
	require.NoError(t, err)

	require.Len(t, fc.reqs, 1)
	require.NotNil(t, fc.reqs[0].Temperature)
	assert.Equal(t, float32(0), *fc.reqs[0].Temperature)
}

func TestHandle_Generate(t *testing.T) {
	fc := &fakeClient{text: "  नमस्ते, आप कैसे हैं?\n"}
	h, err := newTestBackend(fc).Load(context.Background(), backend.LoadOptions{})
	require.NoError(t, err)

	seq, err := h.Generate(context.Background(), "en: Hello, how are you?", backend.GenerateOptions{
		SourceLang: "en",
		TargetLang: "hi",
		MaxLength:  256,
	})
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते, आप कैसे हैं?", h.Decode(seq))

	require.Len(t, fc.reqs, 1)
	req := fc.reqs[0]
	assert.Equal(t, 256, req.MaxTokens)
	assert.Contains(t, req.System, "Hindi")
	assert.Contains(t, req.System, "English")
	assert.Contains(t, req.System, `"en: "`)
}

func TestHandle_Generate_Error(t *testing.T) {
	fc := &fakeClient{err: errors.New("overloaded")}
	h, err := newTestBackend(fc).Load(context.Background(), backend.LoadOptions{})
	require.NoError(t, err)

	_, err = h.Generate(context.Background(), "en: hi", backend.GenerateOptions{SourceLang: "en", TargetLang: "ta"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Len(t, fc.reqs, 1)
}

func TestHandle_Generate_CancelledContext(t *testing.T) {
	fc := &fakeClient{text: "x"}
	h, err := newTestBackend(fc).Load(context.Background(), backend.LoadOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Generate(ctx, "en: hi", backend.GenerateOptions{})
	assert.Error(t, err)
	assert.Empty(t, fc.reqs)
}

func TestHandle_Decode_StripsControlTokens(t *testing.T) {
	h := &Handle{}
	assert.Equal(t, "line one\nline two", h.Decode(backend.Sequence{Tokens: []string{"<s>", "line one\nline two", "</s>"}}))
}
