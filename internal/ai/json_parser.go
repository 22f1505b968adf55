package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Small local models wrap JSON in fences, prose and JS-isms often enough that
// a single json.Unmarshal rejects usable answers.
var (
	// Matches ```json\n{...}\n```, ```{...}```, ``` json{...}``` and friends
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)^\s*//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy on purpose: the outermost braces win
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)

	// Qwen-style reasoning blocks that precede the answer
	thinkBlockRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// ParseResult is the outcome of a resilient parse.
type ParseResult[T any] struct {
	Success bool
	Data    T
	Error   string

	// Strategy names the step that produced Data (direct, fences, cleanup, extract)
	Strategy string

	// JSON is the exact text that unmarshalled into Data. Schema checks run
	// against it, since Data alone cannot distinguish absent fields from
	// zero values.
	JSON string

	OriginalText string
}

// ParseOptions configures Parse. The zero value enables every strategy.
type ParseOptions struct {
	Operation      string // Prefix for error messages and logs
	DisableCleanup bool   // Only attempt a direct parse
	MaxInputSize   int    // Maximum input size in bytes (0 = 10MB)
}

const defaultMaxInputSize = 10 * 1024 * 1024

// Parse decodes a JSON object from model output, trying progressively more
// forgiving strategies:
//  1. Direct JSON parse
//  2. Strip reasoning blocks and code fences
//  3. Fix trailing commas, comments and unquoted keys
//  4. Extract the outermost object from mixed content
func Parse[T any](text string, opts ...ParseOptions) ParseResult[T] {
	var options ParseOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	maxSize := options.MaxInputSize
	if maxSize == 0 {
		maxSize = defaultMaxInputSize
	}

	if len(text) > maxSize {
		return parseFailure[T](
			fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), maxSize),
			truncate(text, 1000), options.Operation)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseFailure[T]("empty input", text, options.Operation)
	}

	data, err := tryDirectParse[T](trimmed)
	if err == nil {
		return parseSuccess(data, "direct", trimmed, text)
	}
	if options.DisableCleanup {
		return parseFailure[T](err.Error(), text, options.Operation)
	}

	slog.Debug("direct JSON parse failed, trying cleanup strategies",
		"operation", options.Operation,
		"error", err.Error(),
		"preview", truncate(text, 100))

	withoutFences := removeCodeFences(stripThinking(trimmed))
	if withoutFences != trimmed {
		if data, err := tryDirectParse[T](withoutFences); err == nil {
			return parseSuccess(data, "fences", withoutFences, text)
		}
	}

	cleaned := cleanupJSON(withoutFences)
	if data, err := tryDirectParse[T](cleaned); err == nil {
		return parseSuccess(data, "cleanup", cleaned, text)
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if data, err := tryDirectParse[T](extracted); err == nil {
			return parseSuccess(data, "extract", extracted, text)
		}
	}

	return parseFailure[T]("no JSON object could be decoded", text, options.Operation)
}

func tryDirectParse[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

func stripThinking(text string) string {
	return strings.TrimSpace(thinkBlockRegex.ReplaceAllString(text, ""))
}

// removeCodeFences strips markdown code fences, first around the whole text
// and then anywhere inside it.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}

	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimPrefix(cleaned, "`")
		cleaned = strings.TrimSuffix(cleaned, "`")
	}

	return strings.TrimSpace(cleaned)
}

// cleanupJSON fixes the JavaScript-isms models like to emit. Single quotes are
// left alone: converting them would corrupt apostrophes inside strings.
// Only whole-line // comments are removed so URLs in values survive.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractJSON returns the outermost {...} span, or "" if there is none.
func extractJSON(text string) string {
	return objectRegex.FindString(text)
}

func parseSuccess[T any](data T, strategy, jsonText, original string) ParseResult[T] {
	return ParseResult[T]{
		Success:      true,
		Data:         data,
		Strategy:     strategy,
		JSON:         jsonText,
		OriginalText: original,
	}
}

func parseFailure[T any](message, text, operation string) ParseResult[T] {
	if operation != "" {
		message = operation + ": " + message
	}
	return ParseResult[T]{
		Success:      false,
		Error:        message,
		OriginalText: text,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
