package document

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a wire block or inline node carries a type
// tag this package does not know.
var ErrUnknownType = errors.New("unknown type")

// Wire type tags.
const (
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeQuote     = "quote"
	TypeCallout   = "callout"
	TypeMarkdown  = "markdown"
	TypeListItem  = "list_item"
	TypeUnknown   = "unknown"

	TypeText       = "text"
	TypeInlineCode = "inline_code"
	TypeLink       = "link"
)

// WireBlock is the tagged serialised form of a Block, shared by the SQLite
// store (JSON) and document files (YAML).
type WireBlock struct {
	Type     string       `json:"type" yaml:"type"`
	Text     string       `json:"text,omitempty" yaml:"text,omitempty"`
	Level    int          `json:"level,omitempty" yaml:"level,omitempty"`
	Kind     ListKind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Checked  bool         `json:"checked,omitempty" yaml:"checked,omitempty"`
	RawType  string       `json:"raw_type,omitempty" yaml:"raw_type,omitempty"`
	Children []WireInline `json:"children,omitempty" yaml:"children,omitempty"`
}

type WireInline struct {
	Type string `json:"type" yaml:"type"`
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// EncodeBlocks converts blocks to their wire form.
func EncodeBlocks(blocks []Block) ([]WireBlock, error) {
	out := make([]WireBlock, 0, len(blocks))
	for i, b := range blocks {
		w, err := encodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func encodeBlock(b Block) (WireBlock, error) {
	switch b := b.(type) {
	case Paragraph:
		return WireBlock{Type: TypeParagraph, Text: b.Text}, nil
	case Heading:
		if b.Level < 1 || b.Level > 3 {
			return WireBlock{}, fmt.Errorf("heading level %d out of range", b.Level)
		}
		return WireBlock{Type: TypeHeading, Level: b.Level, Text: b.Text}, nil
	case Quote:
		return WireBlock{Type: TypeQuote, Text: b.Text}, nil
	case Callout:
		return WireBlock{Type: TypeCallout, Text: b.Text}, nil
	case Markdown:
		return WireBlock{Type: TypeMarkdown, Text: b.Text}, nil
	case ListItem:
		return WireBlock{Type: TypeListItem, Kind: b.Kind, Text: b.Text, Checked: b.Checked}, nil
	case Unknown:
		children := make([]WireInline, 0, len(b.Children))
		for _, n := range b.Children {
			switch n := n.(type) {
			case Text:
				children = append(children, WireInline{Type: TypeText, Text: n.Text})
			case InlineCode:
				children = append(children, WireInline{Type: TypeInlineCode, Text: n.Code})
			case LinkText:
				children = append(children, WireInline{Type: TypeLink, Text: n.Text, URL: n.URL})
			default:
				return WireBlock{}, fmt.Errorf("nil inline node")
			}
		}
		return WireBlock{Type: TypeUnknown, RawType: b.RawType, Children: children}, nil
	}
	return WireBlock{}, fmt.Errorf("nil block")
}

// DecodeBlocks converts wire blocks back into the Block sum type.
func DecodeBlocks(wire []WireBlock) ([]Block, error) {
	out := make([]Block, 0, len(wire))
	for i, w := range wire {
		b, err := decodeBlock(w)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeBlock(w WireBlock) (Block, error) {
	switch w.Type {
	case TypeParagraph:
		return Paragraph{Text: w.Text}, nil
	case TypeHeading:
		if w.Level < 1 || w.Level > 3 {
			return nil, fmt.Errorf("heading level %d out of range", w.Level)
		}
		return Heading{Level: w.Level, Text: w.Text}, nil
	case TypeQuote:
		return Quote{Text: w.Text}, nil
	case TypeCallout:
		return Callout{Text: w.Text}, nil
	case TypeMarkdown:
		return Markdown{Text: w.Text}, nil
	case TypeListItem:
		kind := w.Kind
		if kind == "" {
			kind = ListUnordered
		}
		return ListItem{Kind: kind, Text: w.Text, Checked: w.Checked}, nil
	case TypeUnknown:
		children := make([]InlineNode, 0, len(w.Children))
		for _, c := range w.Children {
			switch c.Type {
			case TypeText:
				children = append(children, Text{Text: c.Text})
			case TypeInlineCode:
				children = append(children, InlineCode{Code: c.Text})
			case TypeLink:
				children = append(children, LinkText{Text: c.Text, URL: c.URL})
			default:
				return nil, fmt.Errorf("inline %q: %w", c.Type, ErrUnknownType)
			}
		}
		return Unknown{RawType: w.RawType, Children: children}, nil
	}
	return nil, fmt.Errorf("block %q: %w", w.Type, ErrUnknownType)
}

// MarshalBlocks encodes blocks as a JSON array of wire blocks.
func MarshalBlocks(blocks []Block) ([]byte, error) {
	wire, err := EncodeBlocks(blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// UnmarshalBlocks is the inverse of MarshalBlocks.
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var wire []WireBlock
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding blocks: %w", err)
	}
	return DecodeBlocks(wire)
}
