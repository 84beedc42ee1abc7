package translation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferenceSpeed(t *testing.T) {
	tests := []struct {
		words int
		ms    int64
		want  string
	}{
		{words: 10, ms: 1000, want: "10.0 words/sec"},
		{words: 3, ms: 2000, want: "1.5 words/sec"},
		{words: 1, ms: 3, want: "333.3 words/sec"},
		{words: 5, ms: 0, want: "5000.0 words/sec"},
		{words: 5, ms: -1, want: "5000.0 words/sec"},
		{words: 0, ms: 10, want: "0.0 words/sec"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferenceSpeed(tt.words, tt.ms))
	}
}

func TestResult_SuccessJSON(t *testing.T) {
	res := Succeeded("नमस्ते", "en", "hi", 1500*time.Millisecond, 3)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"success":         true,
		"translated_text": "नमस्ते",
		"source_lang":     "en",
		"target_lang":     "hi",
		"duration_ms":     float64(1500),
		"word_count":      float64(3),
		"inference_speed": "2.0 words/sec",
	}, got)
}

func TestResult_FailureJSON(t *testing.T) {
	res := Failed("Text cannot be empty", 2*time.Millisecond)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"success":     false,
		"error":       "Text cannot be empty",
		"duration_ms": float64(2),
	}, got)
}
