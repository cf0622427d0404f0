// Package prompt holds the translation prompt template model. Templates are
// versioned by the store; each version is identified by the BLAKE3 digest of
// its content.
package prompt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Name is the name templates are published under.
const Name = "translate_prompt"

// Placeholder is replaced by the target language's display name.
const Placeholder = "{prompt_language}"

const DefaultTemplate = "Translate the following text to {prompt_language}.\n" +
	"### Rules\n" +
	"- Please do not include any other text than the translation.\n" +
	"- If it is written by Markdown, please translate it as Markdown.\n" +
	"- Please keep any parts like __INLINECODE_x__ unchanged during translation.\n" +
	"- Please translate the content in a natural and professional way."

var ErrInvalidTemplate = errors.New("invalid prompt template")

type Template struct {
	Name      string
	Version   int
	Digest    string
	Content   string
	CreatedAt time.Time
}

// Validate checks that content contains exactly one Placeholder.
func Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTemplate)
	}
	if n := strings.Count(content, Placeholder); n != 1 {
		return fmt.Errorf("%w: expected exactly one %s, found %d", ErrInvalidTemplate, Placeholder, n)
	}
	return nil
}

// Render substitutes language into the template.
func (t Template) Render(language string) string {
	return strings.Replace(t.Content, Placeholder, language, 1)
}

// Digest returns the hex BLAKE3-256 digest of content.
func Digest(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
