package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
	"github.com/nguyenvanduocit/indictrans/pkg/model"
)

type fakeModel struct {
	ready   bool
	calls   []string
	opts    []backend.GenerateOptions
	err     error
	panicOn string
}

func (m *fakeModel) Ready() bool { return m.ready }

func (m *fakeModel) Generate(ctx context.Context, input string, opts backend.GenerateOptions) (string, error) {
	m.calls = append(m.calls, input)
	m.opts = append(m.opts, opts)
	if m.panicOn != "" && strings.Contains(input, m.panicOn) {
		panic("tensor shape mismatch")
	}
	if m.err != nil {
		return "", m.err
	}
	return strings.ToUpper(input), nil
}

type memoryRecorder struct {
	reqs    []Request
	results []Result
	err     error
}

func (r *memoryRecorder) Record(ctx context.Context, req Request, res Result) error {
	r.reqs = append(r.reqs, req)
	r.results = append(r.results, res)
	return r.err
}

func TestService_Translate_Success(t *testing.T) {
	m := &fakeModel{ready: true}
	svc := New(Deps{Model: m}, Options{})

	res := svc.Translate(context.Background(), Request{Text: "hello  world", SourceLang: "en", TargetLang: "hi"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "EN: HELLO  WORLD", res.TranslatedText)
	assert.Equal(t, "en", res.SourceLang)
	assert.Equal(t, "hi", res.TargetLang)
	assert.Equal(t, 2, res.WordCount)
	assert.GreaterOrEqual(t, res.DurationMS, int64(0))
	assert.True(t, strings.HasSuffix(res.InferenceSpeed, " words/sec"))

	require.Equal(t, []string{"en: hello  world"}, m.calls)
	assert.Equal(t, backend.GenerateOptions{
		SourceLang:     "en",
		TargetLang:     "hi",
		MaxLength:      DefaultMaxLength,
		NumBeams:       DefaultNumBeams,
		MaxInputTokens: DefaultMaxInputTokens,
		EarlyStopping:  true,
	}, m.opts[0])
}

func TestService_Translate_RequestLimits(t *testing.T) {
	m := &fakeModel{ready: true}
	svc := New(Deps{Model: m}, Options{MaxLength: 128, NumBeams: 2})

	svc.Translate(context.Background(), Request{Text: "a", SourceLang: "en", TargetLang: "hi"})
	svc.Translate(context.Background(), Request{Text: "b", SourceLang: "en", TargetLang: "hi", MaxLength: 64, NumBeams: 8})

	require.Len(t, m.opts, 2)
	assert.Equal(t, 128, m.opts[0].MaxLength)
	assert.Equal(t, 2, m.opts[0].NumBeams)
	assert.Equal(t, 64, m.opts[1].MaxLength)
	assert.Equal(t, 8, m.opts[1].NumBeams)
}

func TestService_Translate_ValidationSkipsBackend(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		errorMsg string
	}{
		{"empty", Request{Text: "", SourceLang: "en", TargetLang: "hi"}, "Text cannot be empty"},
		{"bad source", Request{Text: "hello", SourceLang: "xx", TargetLang: "hi"}, "Unsupported source language: xx"},
		{"same", Request{Text: "hello", SourceLang: "en", TargetLang: "en"}, "Source and target languages must be different"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{ready: true}
			res := New(Deps{Model: m}, Options{}).Translate(context.Background(), tt.req)

			assert.False(t, res.Success)
			assert.Equal(t, tt.errorMsg, res.Error)
			assert.GreaterOrEqual(t, res.DurationMS, int64(0))
			assert.Empty(t, m.calls)
		})
	}
}

func TestService_Translate_MaxWordsOption(t *testing.T) {
	m := &fakeModel{ready: true}
	res := New(Deps{Model: m}, Options{MaxWords: 2}).Translate(context.Background(),
		Request{Text: "one two three", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "Text exceeds maximum of 2 words (got 3)", res.Error)
}

func TestService_Translate_NotLoaded(t *testing.T) {
	m := &fakeModel{ready: false}
	res := New(Deps{Model: m}, Options{}).Translate(context.Background(),
		Request{Text: "hello", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "Model not loaded. Call load_model() first.", res.Error)
	assert.Empty(t, m.calls)
}

func TestService_Translate_NilModel(t *testing.T) {
	res := New(Deps{}, Options{}).Translate(context.Background(),
		Request{Text: "hello", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "Model not loaded. Call load_model() first.", res.Error)
}

func TestService_Translate_BackendError(t *testing.T) {
	m := &fakeModel{ready: true, err: errors.New("generate: connection refused")}
	res := New(Deps{Model: m}, Options{}).Translate(context.Background(),
		Request{Text: "hello", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "generate: connection refused", res.Error)
}

func TestService_Translate_UnloadedMidFlight(t *testing.T) {
	m := &fakeModel{ready: true, err: model.ErrNotLoaded}
	res := New(Deps{Model: m}, Options{}).Translate(context.Background(),
		Request{Text: "hello", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "Model not loaded. Call load_model() first.", res.Error)
}

func TestService_Translate_BackendPanic(t *testing.T) {
	m := &fakeModel{ready: true, panicOn: "boom"}
	res := New(Deps{Model: m}, Options{}).Translate(context.Background(),
		Request{Text: "boom", SourceLang: "en", TargetLang: "hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "backend panic: tensor shape mismatch", res.Error)
}

func TestService_BatchTranslate_OrderAndIsolation(t *testing.T) {
	m := &fakeModel{ready: true, panicOn: "boom"}
	svc := New(Deps{Model: m}, Options{})

	texts := []string{"first", "", "boom", "fourth"}
	results := svc.BatchTranslate(context.Background(), texts, "en", "hi")

	require.Len(t, results, len(texts))
	assert.True(t, results[0].Success)
	assert.Equal(t, "EN: FIRST", results[0].TranslatedText)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Text cannot be empty", results[1].Error)
	assert.False(t, results[2].Success)
	assert.True(t, results[3].Success)
	assert.Equal(t, "EN: FOURTH", results[3].TranslatedText)

	// the empty text never reached the model
	assert.Equal(t, []string{"en: first", "en: boom", "en: fourth"}, m.calls)
}

func TestService_BatchTranslate_Lengths(t *testing.T) {
	svc := New(Deps{Model: &fakeModel{ready: true}}, Options{})

	for n := 0; n < 5; n++ {
		texts := make([]string, n)
		for i := range texts {
			texts[i] = fmt.Sprintf("text %d", i)
		}
		results := svc.BatchTranslate(context.Background(), texts, "en", "ta")
		require.Len(t, results, n)
		for i, r := range results {
			assert.Equal(t, strings.ToUpper("en: "+texts[i]), r.TranslatedText)
		}
	}
}

func TestService_RecordsResults(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("disk full")}
	svc := New(Deps{Model: &fakeModel{ready: true}, Recorder: rec}, Options{})

	ok := svc.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "hi"})
	bad := svc.Translate(context.Background(), Request{Text: "", SourceLang: "en", TargetLang: "hi"})

	require.Len(t, rec.results, 2)
	assert.Equal(t, ok, rec.results[0])
	assert.Equal(t, bad, rec.results[1])
	assert.Equal(t, "hello", rec.reqs[0].Text)
	// recorder errors never turn a success into a failure
	assert.True(t, ok.Success)
}
