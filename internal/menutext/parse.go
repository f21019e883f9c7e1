package menutext

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// DefaultCategory names the items that appear before any header.
const DefaultCategory = "General"

// Category is one named section of a parsed menu.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item is one orderable line. ID is the numbering taken verbatim from the
// source line and is only a display hint; it is not unique.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

var (
	separatorRe = regexp.MustCompile(`^["'=\-_]{3,}$`)
	priceRe     = regexp.MustCompile(`(?i)RM\s*(\d+(?:\.\d{1,2})?)`)
	numberedRe  = regexp.MustCompile(`^\d+[.)\s]`)
	idRe        = regexp.MustCompile(`^(\d+)\.`)

	priceTokenRe    = regexp.MustCompile(`(?i)\(?\bRM\s*[\d.]+\)?`)
	leadingNumberRe = regexp.MustCompile(`^\d+\s*[.)]\s*`)
	quotesRe        = regexp.MustCompile(`["']+`)
)

// Lowercase substrings that mark announcement text at the top of a message.
var marketingKeywords = []string{
	"menu daily",
	"vendor",
	"est dolce",
	"delivery",
	"order",
	"close",
	"open",
	"today",
}

const nbsp = '\u00A0'

// zeroWidth matches the invisible characters that chat apps leave in copied text.
var zeroWidth = runes.Predicate(func(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\uFEFF', '\u2060':
		return true
	}
	return false
})

// parser holds the state of a single pass: the category being built, the
// categories already flushed and the latch that turns off the keyword filter.
type parser struct {
	out       []Category
	current   Category
	capturing bool
}

// Parse converts a chat-style menu into categories of priced items.
//
// A header is only recognised when the line following it is a separator made
// of repeated quote, equals, hyphen or underscore characters. Header lines in
// any other style (for example ALL-CAPS with no separator) are ignored and
// their items land in the preceding category.
func Parse(raw string) []Category {
	p := &parser{
		out:     make([]Category, 0),
		current: Category{Name: DefaultCategory},
	}

	lines := strings.Split(raw, "\n")
	for i, rawLine := range lines {
		line := strings.TrimSpace(cleanText(strings.TrimSpace(rawLine)))
		if line == "" {
			continue
		}

		if separatorRe.MatchString(line) {
			if i > 0 {
				p.startCategory(headerName(lines[i-1]))
			}
			continue
		}

		if !p.capturing && isMarketing(line) {
			continue
		}

		if item, ok := parseItem(line); ok {
			p.current.Items = append(p.current.Items, item)
			p.capturing = true
		}
	}
	p.flush()

	return p.out
}

func (p *parser) startCategory(name string) {
	p.flush()
	p.current.Name = name
	p.capturing = true
}

// flush commits the current category when it holds items and resets it.
func (p *parser) flush() {
	if len(p.current.Items) > 0 {
		p.out = append(p.out, p.current)
	}
	p.current = Category{Name: DefaultCategory}
}

func headerName(line string) string {
	name := strings.TrimSpace(cleanText(strings.TrimSpace(line)))
	name = strings.NewReplacer(`"`, "", `'`, "").Replace(name)
	if name == "" {
		return DefaultCategory
	}
	return name
}

func isMarketing(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range marketingKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// parseItem classifies a single cleaned line. A line is an item when it
// carries an RM price or starts like a numbered list entry.
func parseItem(line string) (Item, bool) {
	priceMatch := priceRe.FindStringSubmatch(line)
	if priceMatch == nil && !numberedRe.MatchString(line) {
		return Item{}, false
	}

	amount := "0.00"
	if priceMatch != nil {
		amount = formatAmount(priceMatch[1])
	}

	var id string
	if m := idRe.FindStringSubmatch(line); m != nil {
		id = m[1]
	}

	name := priceTokenRe.ReplaceAllString(line, "")
	name = leadingNumberRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(quotesRe.ReplaceAllString(name, ""))
	name = strings.TrimSuffix(name, ".")

	if utf8.RuneCountInString(name) <= 2 {
		return Item{}, false
	}

	return Item{ID: id, Name: name, Price: "RM " + amount}, true
}

func formatAmount(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

// cleanText drops zero-width characters and turns non-breaking spaces into
// plain ones, so "RM\u00A08.50" reads like "RM 8.50".
func cleanText(s string) string {
	t := transform.Chain(runes.Remove(zeroWidth), runes.Map(func(r rune) rune {
		if r == nbsp {
			return ' '
		}
		return r
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
