package content

import (
	"encoding/json"
	"strings"
)

// BlockKind enumerates the structured rich-text block types.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
	BlockImage     BlockKind = "image"
	BlockVideo     BlockKind = "video"
	BlockEmbed     BlockKind = "embed"
	BlockDelta     BlockKind = "quill-delta"
)

// Block is one element of a structured rich-text document.
type Block struct {
	Kind    BlockKind       `json:"type"`
	Level   int             `json:"level,omitempty"`
	Content string          `json:"content,omitempty"`
	Items   []string        `json:"items,omitempty"`
	Src     string          `json:"src,omitempty"`
	Alt     string          `json:"alt,omitempty"`
	Delta   json.RawMessage `json:"delta,omitempty"`
}

// RichText is a tagged variant: either a structured block document or plain
// text. The variant is decided once when the stored value is decoded, so
// render and save paths never re-sniff the payload shape.
type RichText struct {
	structured bool
	blocks     []Block
	plain      string
}

// StructuredText builds a structured rich-text value from blocks.
func StructuredText(blocks ...Block) RichText {
	return RichText{structured: true, blocks: blocks}
}

// PlainText builds a plain-text rich-text value.
func PlainText(text string) RichText {
	return RichText{plain: text}
}

// Paragraph is shorthand for a single-paragraph structured document.
func Paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Content: text}
}

// Heading builds a heading block at the given level.
func Heading(level int, text string) Block {
	return Block{Kind: BlockHeading, Level: level, Content: text}
}

// IsStructured reports whether the value carries structured blocks.
func (t RichText) IsStructured() bool {
	return t.structured
}

// Plain returns the raw text of a plain-text value.
func (t RichText) Plain() string {
	return t.plain
}

// Blocks returns the document as blocks. Plain text is presented as a single
// paragraph so render paths handle one shape.
func (t RichText) Blocks() []Block {
	if t.structured {
		return append([]Block(nil), t.blocks...)
	}
	if t.plain == "" {
		return nil
	}
	return []Block{Paragraph(t.plain)}
}

// IsEmpty reports whether the document renders nothing: no blocks, or a
// single paragraph with only whitespace.
func (t RichText) IsEmpty() bool {
	blocks := t.Blocks()
	if len(blocks) == 0 {
		return true
	}
	if len(blocks) == 1 && blocks[0].Kind == BlockParagraph {
		return strings.TrimSpace(blocks[0].Content) == ""
	}
	return false
}

// DecodeRichText interprets a stored text value: a JSON array parses as a
// structured document, anything else (including a malformed document) is
// carried as plain text.
func DecodeRichText(raw string) RichText {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RichText{}
	}
	if strings.HasPrefix(trimmed, "[") {
		var blocks []Block
		if err := json.Unmarshal([]byte(trimmed), &blocks); err == nil {
			return RichText{structured: true, blocks: blocks}
		}
	}
	return RichText{plain: raw}
}

// MarshalJSON emits the block-array wire form. Plain text becomes a single
// paragraph block, matching how stored documents degrade on read.
func (t RichText) MarshalJSON() ([]byte, error) {
	blocks := t.Blocks()
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(blocks)
}

// UnmarshalJSON accepts either a block array or a JSON string. String values
// are re-interpreted through DecodeRichText so a serialized document stored
// inside a text column still decodes as structured blocks.
func (t *RichText) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*t = RichText{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			*t = RichText{plain: string(data)}
			return nil
		}
		*t = RichText{structured: true, blocks: blocks}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			*t = RichText{plain: string(data)}
			return nil
		}
		*t = DecodeRichText(inner)
		return nil
	}
	*t = RichText{plain: string(data)}
	return nil
}

// Description is rich text carried inside a plain string column. It decodes
// exactly like RichText but marshals back to a string: structured documents
// are serialized to their JSON form, plain text passes through unchanged.
type Description struct {
	RichText
}

// NewDescription wraps a rich-text value for string-column storage.
func NewDescription(text RichText) Description {
	return Description{RichText: text}
}

// MarshalJSON emits the string wire form used by the description column.
func (d Description) MarshalJSON() ([]byte, error) {
	if d.IsStructured() {
		blocks := d.Blocks()
		if blocks == nil {
			blocks = []Block{}
		}
		serialized, err := json.Marshal(blocks)
		if err != nil {
			return nil, err
		}
		return json.Marshal(string(serialized))
	}
	return json.Marshal(d.Plain())
}
