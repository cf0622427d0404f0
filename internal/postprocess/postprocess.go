// Package postprocess removes common LLM artefacts from a translated block
// while keeping the shape of the source text.
//
// Every phase is skipped when the source itself already shows the pattern,
// so genuine content (a quoted sentence, a markdown snippet about
// <thinking> tags) is never stripped.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// Clean returns the translation of source with artefacts removed and the
// source's leading and trailing whitespace re-applied. It returns "" when
// nothing but artefacts remain.
func Clean(source, translated string) string {
	text := translated
	if !thinkingTagRe.MatchString(source) {
		text = removeThinkingBlocks(text)
	}
	if !hasInstructionEcho(strings.TrimSpace(source)) {
		text = removeInstructionEchoes(strings.TrimSpace(text))
	}
	if !isQuoteWrapped(strings.TrimSpace(source)) {
		text = removeQuoteWrapping(strings.TrimSpace(text))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return leadingSpace(source) + text + trailingSpace(source)
}

// thinkingTagRe detects any opening reasoning tag.
var thinkingTagRe = regexp.MustCompile(`(?i)<(?:thinking|think|reasoning|reflection)>`)

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks. RE2
// has no backreferences, so each tag is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened tag whose closing tag never came.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoPatterns match preambles models add despite being told not to. They
// are anchored at the start and require a colon.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
}

func hasInstructionEcho(text string) bool {
	for _, re := range echoPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'「', '」'},
}

func isQuoteWrapped(text string) bool {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return false
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[n-1] == p[1] {
			return true
		}
	}
	return false
}

func removeQuoteWrapping(text string) string {
	if !isQuoteWrapped(text) {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[1 : len(runes)-1]))
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
}

func trailingSpace(s string) string {
	return s[len(strings.TrimRightFunc(s, unicode.IsSpace)):]
}
