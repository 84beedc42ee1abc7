package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/api"
	"github.com/nguyenvanduocit/indictrans/pkg/translation"
)

var Translate = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text from the command line",
	Example: `indictrans translate -s en -t hi "Hello, how are you?"
indictrans translate -s hi -t en --file sentences.txt --json`,
	RunE: runTranslate,
}

func init() {
	Translate.Flags().StringP("source", "s", "en", "source language code")
	Translate.Flags().StringP("target", "t", "hi", "target language code")
	Translate.Flags().String("text", "", "text to translate")
	Translate.Flags().StringP("file", "f", "", "translate every non-empty line of a file, - for stdin")
	Translate.Flags().Int("max-length", 0, "maximum generated tokens (single text only)")
	Translate.Flags().Int("num-beams", 0, "beam width (single text only)")
	Translate.Flags().Bool("json", false, "print results as JSON")
}

var errTranslationFailed = errors.New("translation failed")

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "Interrupt received, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	source, _ := cmd.Flags().GetString("source")
	target, _ := cmd.Flags().GetString("target")
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	maxLength, _ := cmd.Flags().GetInt("max-length")
	numBeams, _ := cmd.Flags().GetInt("num-beams")
	asJSON, _ := cmd.Flags().GetBool("json")

	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	if text == "" && file == "" {
		return errors.New("nothing to translate: pass text, --text or --file")
	}

	app, err := api.Build(ctx, cfg, nil, slog.Default())
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Handler.Warm(ctx); err != nil {
		return fmt.Errorf("failed to initialize translation model: %w", err)
	}

	var results []translation.Result
	if file != "" {
		lines, err := readLines(cmd.InOrStdin(), file)
		if err != nil {
			return err
		}
		results = app.Service.BatchTranslate(ctx, lines, strings.ToLower(source), strings.ToLower(target))
	} else {
		results = append(results, app.Service.Translate(ctx, translation.Request{
			Text:       strings.TrimSpace(text),
			SourceLang: strings.ToLower(source),
			TargetLang: strings.ToLower(target),
			MaxLength:  maxLength,
			NumBeams:   numBeams,
		}))
	}

	return printResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, asJSON)
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func printResults(out, errOut io.Writer, results []translation.Result, asJSON bool) error {
	failed := 0
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	for _, res := range results {
		if !res.Success {
			failed++
		}
		if asJSON {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		if res.Success {
			fmt.Fprintln(out, res.TranslatedText)
		} else {
			fmt.Fprintf(errOut, "Error: %s\n", res.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errTranslationFailed, failed, len(results))
	}
	return nil
}
