package translation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is either a success or a failure; Success tells which fields are set.
// Build one with Succeeded or Failed.
type Result struct {
	Success        bool
	TranslatedText string
	SourceLang     string
	TargetLang     string
	DurationMS     int64
	WordCount      int
	InferenceSpeed string
	Error          string
}

func Succeeded(translated, sourceLang, targetLang string, elapsed time.Duration, wordCount int) Result {
	ms := elapsed.Milliseconds()
	return Result{
		Success:        true,
		TranslatedText: translated,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		DurationMS:     ms,
		WordCount:      wordCount,
		InferenceSpeed: InferenceSpeed(wordCount, ms),
	}
}

func Failed(msg string, elapsed time.Duration) Result {
	return Result{
		Error:      msg,
		DurationMS: elapsed.Milliseconds(),
	}
}

// InferenceSpeed formats words per second. A duration under one millisecond
// counts as one millisecond.
func InferenceSpeed(wordCount int, durationMS int64) string {
	if durationMS < 1 {
		durationMS = 1
	}
	return fmt.Sprintf("%.1f words/sec", float64(wordCount)/(float64(durationMS)/1000))
}

// Fields returns the envelope fields of the result, including "success".
func (r Result) Fields() map[string]any {
	if !r.Success {
		return map[string]any{
			"success":     false,
			"error":       r.Error,
			"duration_ms": r.DurationMS,
		}
	}
	return map[string]any{
		"success":         true,
		"translated_text": r.TranslatedText,
		"source_lang":     r.SourceLang,
		"target_lang":     r.TargetLang,
		"duration_ms":     r.DurationMS,
		"word_count":      r.WordCount,
		"inference_speed": r.InferenceSpeed,
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}
