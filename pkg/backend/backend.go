package backend

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrClosed = errors.New("backend handle is closed")

// Backend loads a translation model and hands out a Handle for generation.
type Backend interface {
	Name() string
	// Available reports whether the backend can be used at all, e.g. the
	// inference sidecar answers or an API key is configured.
	Available(ctx context.Context) error
	Load(ctx context.Context, opts LoadOptions) (Handle, error)
}

// Handle is a loaded model. Implementations must be safe for concurrent use.
type Handle interface {
	Generate(ctx context.Context, input string, opts GenerateOptions) (Sequence, error)
	Decode(seq Sequence) string
	Close() error
}

type LoadOptions struct {
	ModelDir string
	Device   string
}

type GenerateOptions struct {
	SourceLang     string
	TargetLang     string
	MaxLength      int
	NumBeams       int
	MaxInputTokens int
	EarlyStopping  bool
}

// Sequence is the raw generated output before decoding.
type Sequence struct {
	Tokens []string
}

// sentencePieceSpace marks a word boundary in SentencePiece vocabularies.
const sentencePieceSpace = "▁"

var specialTokens = map[string]bool{
	"<s>":    true,
	"</s>":   true,
	"<pad>":  true,
	"<unk>":  true,
	"<mask>": true,
}

// IndicTrans2 tags languages as ISO 639-3 plus script, e.g. hin_Deva.
var languageTagRE = regexp.MustCompile(`^[a-z]{3}_[A-Z][a-z]{3}$`)

func IsControlToken(tok string) bool {
	return specialTokens[tok] || languageTagRE.MatchString(tok)
}

// DecodePieces joins SentencePiece tokens into text, skipping control tokens.
// Runs of spaces collapse; line breaks are kept.
func DecodePieces(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		if IsControlToken(tok) {
			continue
		}
		b.WriteString(strings.ReplaceAll(tok, sentencePieceSpace, " "))
	}
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
