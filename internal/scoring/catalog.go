// Package scoring implements the pluggable scorers for agent evaluation:
// the deterministic structural scorer built on style-pattern analysis, the
// AI-judge scorer that delegates to an external judge model, and the hybrid
// combiner that blends the two at a fixed weighting.
package scoring

import (
	"regexp"
	"sort"
	"strings"
)

// Category classifies a group of style occurrences sharing a signature.
// The four categories are mutually exclusive.
type Category string

const (
	// CategoryDataDriven marks styles attached to data-bearing content
	// (numbers, currency, signed values). These vary per element and are
	// legitimately inline.
	CategoryDataDriven Category = "data_driven"

	// CategoryPositioning marks styles using layout properties whose values
	// are element-specific and therefore legitimately inline.
	CategoryPositioning Category = "positioning"

	// CategoryRepetitive marks signatures appearing more than once that are
	// neither data-driven nor positioning: prime consolidation candidates.
	CategoryRepetitive Category = "repetitive"

	// CategoryUnique marks one-off signatures.
	CategoryUnique Category = "unique"
)

// OccurrenceContext is lightweight context about the element carrying an
// inline style, used to decide whether the style is data-driven.
type OccurrenceContext struct {
	// Text is the element's immediate text content.
	Text string `json:"text,omitempty"`

	// IsTableCell reports whether the parent element is a td or th.
	IsTableCell bool `json:"is_table_cell,omitempty"`

	// HasNumericContent reports whether Text contains any digit.
	HasNumericContent bool `json:"has_numeric_content,omitempty"`

	// ParentTag is the enclosing element's tag name, if known.
	ParentTag string `json:"parent_tag,omitempty"`
}

// StyleOccurrence is one inline-style declaration instance. Occurrences are
// scoped to a single analysis and never persisted.
type StyleOccurrence struct {
	// Element is the tag name carrying the style attribute.
	Element string `json:"element"`

	// Style is the raw declaration text.
	Style string `json:"style"`

	Context OccurrenceContext `json:"context"`
}

// PatternGroup summarizes all occurrences sharing one normalized signature.
type PatternGroup struct {
	Signature string `json:"pattern"`
	Count     int    `json:"count"`
	Example   string `json:"example"`
}

// Analysis aggregates the catalog's findings over a file set.
type Analysis struct {
	TotalInlineStyles int `json:"total_inline_styles"`
	Repetitive        int `json:"repetitive"`
	DataDriven        int `json:"data_driven"`
	Positioning       int `json:"positioning"`
	Unique            int `json:"unique"`
	IEHacks           int `json:"ie_hacks"`
	FontTags          int `json:"font_tags"`
	StyleBlocks       int `json:"style_blocks"`

	// Patterns lists the signature groups per category, sorted by
	// occurrence count descending with ties in encounter order.
	Patterns map[Category][]PatternGroup `json:"patterns"`
}

// injectedIDs are element ids belonging to the evaluation harness's own UI
// chrome. Styles on these elements (or inside them) are never counted.
var injectedIDs = map[string]bool{
	"globalHeader":   true,
	"metricsPanel":   true,
	"metricsContent": true,
	"styleToggle":    true,
	"metricsToggle":  true,
}

var (
	valueRe      = regexp.MustCompile(`:\s*[^;]+`)
	fontTagRe    = regexp.MustCompile(`(?i)<font[^>]*>`)
	styleBlockRe = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe        = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)((?:[^>"']|"[^"]*"|'[^']*')*?)(/?)>`)
	styleAttrRe  = regexp.MustCompile(`(?i)\bstyle\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	idAttrRe     = regexp.MustCompile(`(?i)\bid\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	numericRe    = regexp.MustCompile(`-?\$?\d+\.?\d*`)
	digitRe      = regexp.MustCompile(`\d`)

	ieHackRes = []*regexp.Regexp{
		regexp.MustCompile(`filter:`),
		regexp.MustCompile(`zoom:`),
		regexp.MustCompile(`\*[a-zA-Z]`),
		regexp.MustCompile(`_[a-zA-Z]`),
	}

	positioningProps = []string{
		"position", "top", "left", "right", "bottom",
		"margin", "padding", "float", "clear",
		"transform", "z-index",
	}

	// voidTags never take children and are not pushed on the parse stack.
	voidTags = map[string]bool{
		"area": true, "base": true, "br": true, "col": true, "embed": true,
		"hr": true, "img": true, "input": true, "link": true, "meta": true,
		"source": true, "track": true, "wbr": true,
	}
)

// NormalizeStyle reduces a style declaration to its signature: every
// property value is replaced with a placeholder, the result is case-folded
// and trimmed. Declarations that differ only in literal values share a
// signature, which is how repetitive styling intended for a shared class is
// detected.
func NormalizeStyle(style string) string {
	return strings.ToLower(strings.TrimSpace(valueRe.ReplaceAllString(style, ": VALUE")))
}

// IsIEHack reports whether the style text contains a legacy browser-targeting
// hack (filter/zoom properties or star/underscore property prefixes).
func IsIEHack(style string) bool {
	for _, re := range ieHackRes {
		if re.MatchString(style) {
			return true
		}
	}
	return false
}

// isPositioning reports whether the style uses any layout property.
func isPositioning(style string) bool {
	lower := strings.ToLower(style)
	for _, prop := range positioningProps {
		if strings.Contains(lower, prop) {
			return true
		}
	}
	return false
}

// isDataDriven reports whether the occurrence context looks data-driven:
// numeric or currency content, or sign-prefixed values.
func isDataDriven(ctx OccurrenceContext) bool {
	text := strings.TrimSpace(ctx.Text)
	return numericRe.MatchString(text) ||
		strings.HasPrefix(text, "-") ||
		strings.HasPrefix(text, "+")
}

// Catalog collects style occurrences from markup and classifies them by
// normalized signature. A Catalog is scoped to a single analysis: it is not
// safe for concurrent use and is not reused across scorer calls.
type Catalog struct {
	frequency map[string][]StyleOccurrence
	order     []string // signatures in first-encounter order

	totalInlineStyles int
	ieHacks           int
	fontTags          int
	styleBlocks       int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{frequency: make(map[string][]StyleOccurrence)}
}

// openElement is a stack frame of the lightweight markup scanner. A styled
// frame keeps its declaration pending and accumulates subtree text until the
// element closes, so numeric content inside child elements still marks the
// occurrence as data-driven.
type openElement struct {
	tag      string
	id       string
	injected bool

	hasStyle bool
	style    string
	parent   string
	text     strings.Builder
}

// AddMarkup scans one markup document and records every inline style
// occurrence together with font tag, style block, and IE hack counts.
// Elements belonging to the injected harness chrome are skipped.
//
// The scanner is a tolerant single-pass tag walker, not a full HTML parser:
// it tracks an open-element stack for parent/injected/text context and treats
// unmatched close tags leniently.
func (c *Catalog) AddMarkup(content string) {
	c.fontTags += len(fontTagRe.FindAllString(content, -1))
	c.styleBlocks += len(styleBlockRe.FindAllString(content, -1))

	var stack []*openElement

	tags := tagRe.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range tags {
		closing := content[loc[2]:loc[3]] == "/"
		tag := strings.ToLower(content[loc[4]:loc[5]])
		attrs := content[loc[6]:loc[7]]
		selfClosing := content[loc[8]:loc[9]] == "/"

		switch {
		case closing:
			// Pop to the matching open tag, tolerating mismatches. Every
			// popped frame has seen its full subtree and is flushed.
			match := -1
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].tag == tag {
					match = j
					break
				}
			}
			if match >= 0 {
				for j := len(stack) - 1; j >= match; j-- {
					c.flush(stack[j])
				}
				stack = stack[:match]
			}

		default:
			id := firstGroup(idAttrRe.FindStringSubmatch(attrs))
			injected := injectedIDs[id]
			if !injected && len(stack) > 0 {
				injected = stack[len(stack)-1].injected
			}

			frame := &openElement{tag: tag, id: id, injected: injected}
			if style := firstGroup(styleAttrRe.FindStringSubmatch(attrs)); style != "" && !injected {
				frame.hasStyle = true
				frame.style = style
				if len(stack) > 0 {
					frame.parent = stack[len(stack)-1].tag
				}
			}

			if selfClosing || voidTags[tag] {
				c.flush(frame) // childless, empty subtree text
			} else {
				stack = append(stack, frame)
			}
		}

		// The text following this tag belongs to every open element.
		end := len(content)
		if i+1 < len(tags) {
			end = tags[i+1][0]
		}
		if seg := content[loc[1]:end]; seg != "" {
			for _, f := range stack {
				if f.hasStyle {
					f.text.WriteString(seg)
				}
			}
		}
	}

	// Unclosed elements at end of document.
	for j := len(stack) - 1; j >= 0; j-- {
		c.flush(stack[j])
	}
}

// flush records a frame's pending style occurrence, if any, with the text
// accumulated from its subtree.
func (c *Catalog) flush(frame *openElement) {
	if !frame.hasStyle {
		return
	}
	frame.hasStyle = false

	text := strings.TrimSpace(frame.text.String())
	c.record(StyleOccurrence{
		Element: frame.tag,
		Style:   frame.style,
		Context: OccurrenceContext{
			Text:              text,
			IsTableCell:       frame.parent == "td" || frame.parent == "th",
			HasNumericContent: digitRe.MatchString(text),
			ParentTag:         frame.parent,
		},
	})
}

// record adds one occurrence to its signature group.
func (c *Catalog) record(occ StyleOccurrence) {
	c.totalInlineStyles++
	if IsIEHack(occ.Style) {
		c.ieHacks++
	}

	sig := NormalizeStyle(occ.Style)
	if _, seen := c.frequency[sig]; !seen {
		c.order = append(c.order, sig)
	}
	c.frequency[sig] = append(c.frequency[sig], occ)
}

// Analyze classifies every signature group and returns the aggregate counts.
// Classification precedence per group, judged on its first occurrence:
// data_driven, then positioning, then repetitive (multiple occurrences),
// then unique. Data-driven and positioning styles are legitimately inline
// and are never counted as unconsolidated, even when repeated.
func (c *Catalog) Analyze() Analysis {
	a := Analysis{
		TotalInlineStyles: c.totalInlineStyles,
		IEHacks:           c.ieHacks,
		FontTags:          c.fontTags,
		StyleBlocks:       c.styleBlocks,
		Patterns: map[Category][]PatternGroup{
			CategoryDataDriven:  {},
			CategoryPositioning: {},
			CategoryRepetitive:  {},
			CategoryUnique:      {},
		},
	}

	for _, sig := range c.order {
		occurrences := c.frequency[sig]
		first := occurrences[0]
		n := len(occurrences)

		var cat Category
		switch {
		case isDataDriven(first.Context):
			cat = CategoryDataDriven
			a.DataDriven += n
		case isPositioning(first.Style):
			cat = CategoryPositioning
			a.Positioning += n
		case n > 1:
			cat = CategoryRepetitive
			a.Repetitive += n
		default:
			cat = CategoryUnique
			a.Unique += n
		}

		a.Patterns[cat] = append(a.Patterns[cat], PatternGroup{
			Signature: sig,
			Count:     n,
			Example:   first.Style,
		})
	}

	// Most frequent first; stable so ties keep encounter order.
	for cat := range a.Patterns {
		groups := a.Patterns[cat]
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	}

	return a
}

// firstGroup returns the first non-empty capture group of a submatch.
func firstGroup(m []string) string {
	for i := 1; i < len(m); i++ {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}
