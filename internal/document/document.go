// Package document defines the structured document model that flows through
// the translation pipeline: a title, a description and an ordered list of
// blocks. Block and InlineNode are closed sum types; the only implementations
// are the ones declared in this package.
package document

// DefaultRawType is the raw type of an Unknown block whose inline children
// are translated. Unknown blocks of any other raw type are copied unchanged.
const DefaultRawType = "default"

type Document struct {
	ID          string
	Entity      string
	Project     string
	Title       string
	Description string
	Blocks      []Block
}

// Handle identifies a persisted document.
type Handle struct {
	URL   string
	Title string
}

// Block is a structural unit of a document.
type Block interface {
	block()
}

type Paragraph struct {
	Text string
}

// Heading levels are 1..3.
type Heading struct {
	Level int
	Text  string
}

type Quote struct {
	Text string
}

type Callout struct {
	Text string
}

// Markdown holds a raw markdown fragment (markdown blocks and panels).
type Markdown struct {
	Text string
}

type ListKind string

const (
	ListChecked   ListKind = "checked"
	ListOrdered   ListKind = "ordered"
	ListUnordered ListKind = "unordered"
)

type ListItem struct {
	Kind    ListKind
	Text    string
	Checked bool
}

// Unknown is a block shape the pipeline does not model directly.
type Unknown struct {
	RawType  string
	Children []InlineNode
}

func (Paragraph) block() {}
func (Heading) block()   {}
func (Quote) block()     {}
func (Callout) block()   {}
func (Markdown) block()  {}
func (ListItem) block()  {}
func (Unknown) block()   {}

// InlineNode is text-level content inside an Unknown block.
type InlineNode interface {
	inline()
}

type Text struct {
	Text string
}

// InlineCode content is never sent for translation.
type InlineCode struct {
	Code string
}

// LinkText is the visible label of a link; the label is translatable.
type LinkText struct {
	Text string
	URL  string
}

func (Text) inline()       {}
func (InlineCode) inline() {}
func (LinkText) inline()   {}

// Content returns the raw text a node contributes to its block.
func Content(n InlineNode) string {
	switch n := n.(type) {
	case Text:
		return n.Text
	case InlineCode:
		return n.Code
	case LinkText:
		return n.Text
	}
	return ""
}
