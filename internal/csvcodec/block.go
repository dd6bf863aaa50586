package csvcodec

import "strings"

// BlockKind identifies which codec a CSV block belongs to.
type BlockKind int

const (
	BlockUnknown BlockKind = iota
	BlockTemplates
	BlockItems
)

func (k BlockKind) String() string {
	switch k {
	case BlockTemplates:
		return "templates"
	case BlockItems:
		return "items"
	default:
		return "unknown"
	}
}

// Fixed header cells.
const (
	headerTemplateName = "template name"
	headerItemName     = "item name"
	headerTemplate     = "template"
	headerDescription  = "description"
	headerImage        = "image"
)

// Classify inspects the first row of text and reports its block kind.
func Classify(text string) BlockKind {
	header := ColumnsOf(text)
	switch {
	case isTemplateHeader(header):
		return BlockTemplates
	case isItemHeader(header):
		return BlockItems
	default:
		return BlockUnknown
	}
}

// isTemplateHeader reports whether header is "template name" followed only
// by blank cells.
func isTemplateHeader(header []string) bool {
	return len(header) > 0 && header[0] == headerTemplateName && blankFrom(header, 1)
}

// isItemHeader reports whether header starts with the three fixed item
// columns.
func isItemHeader(header []string) bool {
	return len(header) >= 3 &&
		header[0] == headerItemName &&
		header[1] == headerTemplate &&
		header[2] == headerDescription
}

// SplitBlocks cuts a multi-block upload into blocks at blank lines. Blocks
// are returned without their separators; empty blocks are dropped.
func SplitBlocks(text string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}
