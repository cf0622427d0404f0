// Package placeholder protects inline code during translation. Encode
// flattens a sequence of inline nodes into one string in which every code
// span is replaced by a numbered marker (__INLINECODE_7__) that the model is
// instructed to keep. Decode puts the original code back.
//
// Text that already spells a marker prefix is escaped with a private-use
// rune before it reaches the model, so only markers issued by Encode can
// ever match.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/valpere/doctran/internal/document"
)

const (
	tokenPrefix = "__INLINECODE_"
	tokenSuffix = "__"
)

// escapeRune never appears unescaped in encoded text: a literal
// escapeRune becomes escapeRune+"0" and a literal tokenPrefix becomes
// escapeRune+"1".
const escapeRune = "\uE000"

var (
	escaper   = strings.NewReplacer(escapeRune, escapeRune+"0", tokenPrefix, escapeRune+"1")
	unescaper = strings.NewReplacer(escapeRune+"0", escapeRune, escapeRune+"1", tokenPrefix)
)

// reToken matches any marker, recognised or not.
var reToken = regexp.MustCompile(`__INLINECODE_(\d+)__`)

// sequence hands out marker ids. Ids are never reused within a process, so a
// marker left over from one block can never be mistaken for another's.
var sequence atomic.Uint64

// Token records one protected code span.
type Token struct {
	ID       uint64
	Original string
}

// Marker returns the surface form of the token.
func (t Token) Marker() string {
	return tokenPrefix + strconv.FormatUint(t.ID, 10) + tokenSuffix
}

// Tokens lists the tokens of one Encode call in encounter order.
type Tokens []Token

type MismatchKind string

const (
	Missing   MismatchKind = "missing"
	Duplicate MismatchKind = "duplicate"
)

// Mismatch reports a marker the translation did not preserve exactly once.
type Mismatch struct {
	Marker string
	Kind   MismatchKind
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s marker %s", m.Kind, m.Marker)
}

// Encode concatenates the node contents in order, replacing each InlineCode
// node by a fresh marker. A sequence whose content is empty or whitespace
// only is returned as is, with no tokens. When tokens are issued, the text
// between markers is escaped so it cannot contain a marker of its own.
func Encode(nodes []document.InlineNode) (string, Tokens) {
	var raw strings.Builder
	hasCode := false
	for _, n := range nodes {
		raw.WriteString(document.Content(n))
		if _, ok := n.(document.InlineCode); ok {
			hasCode = true
		}
	}
	if strings.TrimSpace(raw.String()) == "" || !hasCode {
		return raw.String(), nil
	}

	var (
		flat   strings.Builder
		run    strings.Builder
		tokens Tokens
	)
	// Text runs are escaped whole so a prefix split across nodes is caught.
	flush := func() {
		flat.WriteString(escaper.Replace(run.String()))
		run.Reset()
	}
	for _, n := range nodes {
		code, ok := n.(document.InlineCode)
		if !ok {
			run.WriteString(document.Content(n))
			continue
		}
		flush()
		tok := Token{ID: sequence.Add(1), Original: code.Code}
		tokens = append(tokens, tok)
		flat.WriteString(tok.Marker())
	}
	flush()
	return flat.String(), tokens
}

// Decode replaces every recognised marker in translated with its original
// code. It never fails:
//   - the first occurrence of a marker is restored, later copies are dropped;
//   - a marker absent from translated has its original appended at the end,
//     separated by a space, so protected code is never lost but may move
//     away from where it stood in the source;
//   - markers that do not belong to tokens are left untouched;
//   - text escaped by Encode is unescaped.
//
// Every deviation is returned as a Mismatch for the caller to log.
func Decode(translated string, tokens Tokens) (string, []Mismatch) {
	if len(tokens) == 0 {
		return translated, nil
	}

	byMarker := make(map[string]Token, len(tokens))
	for _, t := range tokens {
		byMarker[t.Marker()] = t
	}
	seen := make(map[string]bool, len(tokens))

	var (
		mismatches []Mismatch
		sb         strings.Builder
		prev       int
	)
	for _, loc := range reToken.FindAllStringIndex(translated, -1) {
		sb.WriteString(unescaper.Replace(translated[prev:loc[0]]))
		prev = loc[1]

		marker := translated[loc[0]:loc[1]]
		tok, ok := byMarker[marker]
		switch {
		case !ok:
			sb.WriteString(marker)
		case seen[marker]:
			mismatches = append(mismatches, Mismatch{Marker: marker, Kind: Duplicate})
		default:
			seen[marker] = true
			sb.WriteString(tok.Original)
		}
	}
	sb.WriteString(unescaper.Replace(translated[prev:]))
	restored := sb.String()

	var missing Tokens
	for _, t := range tokens {
		if !seen[t.Marker()] {
			missing = append(missing, t)
		}
	}
	for _, t := range missing {
		mismatches = append(mismatches, Mismatch{Marker: t.Marker(), Kind: Missing})
		if restored != "" && !strings.HasSuffix(restored, " ") {
			restored += " "
		}
		restored += t.Original
	}

	return restored, mismatches
}

// HasMarkers reports whether text contains anything that looks like a marker.
func HasMarkers(text string) bool {
	return strings.Contains(text, tokenPrefix) && reToken.MatchString(text)
}

// InstructionHint returns a sentence to append to the system prompt so the
// model leaves markers intact.
func InstructionHint() string {
	return "Keep every __INLINECODE_n__ marker exactly as it appears. Do not translate, move, or remove them."
}

// Validate returns the markers of tokens that are missing from text.
func Validate(text string, tokens Tokens) []string {
	var missing []string
	for _, t := range tokens {
		if !strings.Contains(text, t.Marker()) {
			missing = append(missing, t.Marker())
		}
	}
	return missing
}
