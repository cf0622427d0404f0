// Package classifier decides, per block, whether it is sent for translation
// and which inline content it contributes.
package classifier

import "github.com/valpere/doctran/internal/document"

type Kind int

const (
	KindPassThrough Kind = iota
	KindParagraph
	KindHeading
	KindQuote
	KindCallout
	KindMarkdown
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindQuote:
		return "quote"
	case KindCallout:
		return "callout"
	case KindMarkdown:
		return "markdown"
	case KindInline:
		return "inline"
	}
	return "pass-through"
}

// Classification is the result of Classify. Nodes is only set when
// Translatable is true.
type Classification struct {
	Kind         Kind
	Translatable bool
	Nodes        []document.InlineNode
}

// Classify maps a block to its classification. Text-bearing blocks expose
// their text as a single Text node; Unknown blocks of the default raw type
// expose their children. List items and other Unknown blocks pass through.
func Classify(b document.Block) Classification {
	switch b := b.(type) {
	case document.Paragraph:
		return textual(KindParagraph, b.Text)
	case document.Heading:
		return textual(KindHeading, b.Text)
	case document.Quote:
		return textual(KindQuote, b.Text)
	case document.Callout:
		return textual(KindCallout, b.Text)
	case document.Markdown:
		return textual(KindMarkdown, b.Text)
	case document.ListItem:
		return Classification{Kind: KindPassThrough}
	case document.Unknown:
		if b.RawType != document.DefaultRawType {
			return Classification{Kind: KindPassThrough}
		}
		return Classification{Kind: KindInline, Translatable: true, Nodes: b.Children}
	}
	return Classification{Kind: KindPassThrough}
}

func textual(kind Kind, text string) Classification {
	return Classification{
		Kind:         kind,
		Translatable: true,
		Nodes:        []document.InlineNode{document.Text{Text: text}},
	}
}

// Rebuild returns the block that replaces b once its text has been
// translated. Unknown blocks of the default raw type become paragraphs;
// pass-through blocks are returned unchanged.
func Rebuild(b document.Block, translated string) document.Block {
	switch b := b.(type) {
	case document.Paragraph:
		return document.Paragraph{Text: translated}
	case document.Heading:
		return document.Heading{Level: b.Level, Text: translated}
	case document.Quote:
		return document.Quote{Text: translated}
	case document.Callout:
		return document.Callout{Text: translated}
	case document.Markdown:
		return document.Markdown{Text: translated}
	case document.ListItem:
		return b
	case document.Unknown:
		if b.RawType != document.DefaultRawType {
			return b
		}
		return document.Paragraph{Text: translated}
	}
	return b
}
