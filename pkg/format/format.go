// Package format detects the rich-text structure of a message: code blocks
// and their languages, headings, lists and tables.
package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Analyze inspects an HTML fragment. Markup structure (pre/code, h1-h6,
// ul/ol, table) and markdown written into the text (fences, ATX headings,
// lists, pipe tables) both count.
func Analyze(fragment string) models.FormatAnalysis {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return AnalyzeText(fragment)
	}

	a := newAccumulator()

	doc.Find("pre, code").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "code" && s.ParentFiltered("pre").Length() == 0 && !strings.Contains(s.Text(), "\n") {
			return // inline code
		}
		a.code = true
		a.addLanguage(languageOf(s))
	})
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		a.addHeading(level)
	})
	if doc.Find("ul, ol").Length() > 0 {
		a.lists = true
	}
	if doc.Find("table").Length() > 0 {
		a.tables = true
	}

	// Text that still reads as markdown (copied raw, or rendered as plain
	// text). Block elements keep their own lines; <pre> content is already
	// counted above.
	if body := doc.Find("body").Clone(); body.Length() > 0 {
		body.Find("pre").Remove()
		a.merge(AnalyzeText(dom.BlockText(body.Nodes[0])))
	}

	return a.result()
}

// AnalyzeText inspects content with no markup as markdown.
func AnalyzeText(content string) models.FormatAnalysis {
	a := newAccumulator()
	src := []byte(content)
	root := markdown.Parser().Parse(text.NewReader(src))

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			a.code = true
			if node.Info != nil {
				a.addLanguage(string(node.Language(src)))
			}
		case *ast.Heading:
			a.addHeading(node.Level)
		case *ast.List:
			a.lists = true
		case *extast.Table:
			a.tables = true
		}
		return ast.WalkContinue, nil
	})
	return a.result()
}

// Merge combines two analyses; a feature present in either is present in the
// result.
func Merge(a, b models.FormatAnalysis) models.FormatAnalysis {
	acc := newAccumulator()
	acc.merge(a)
	acc.merge(b)
	return acc.result()
}

func languageOf(s *goquery.Selection) string {
	candidates := []*goquery.Selection{s, s.Find("code").First(), s.Parent()}
	for _, c := range candidates {
		if c == nil || c.Length() == 0 {
			continue
		}
		if lang, ok := c.Attr("data-language"); ok && lang != "" {
			return lang
		}
		class, _ := c.Attr("class")
		for _, token := range strings.Fields(class) {
			for _, prefix := range []string{"language-", "lang-"} {
				if strings.HasPrefix(token, prefix) {
					return strings.TrimPrefix(token, prefix)
				}
			}
		}
	}
	return ""
}

type accumulator struct {
	code      bool
	languages []string
	seenLang  map[string]bool
	levels    map[int]bool
	lists     bool
	tables    bool
}

func newAccumulator() *accumulator {
	return &accumulator{seenLang: make(map[string]bool), levels: make(map[int]bool)}
}

func (a *accumulator) addLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || a.seenLang[lang] {
		return
	}
	a.seenLang[lang] = true
	a.languages = append(a.languages, lang)
}

func (a *accumulator) addHeading(level int) {
	if level >= 1 && level <= 6 {
		a.levels[level] = true
	}
}

func (a *accumulator) merge(o models.FormatAnalysis) {
	a.code = a.code || o.HasCodeBlocks
	for _, l := range o.CodeLanguages {
		a.addLanguage(l)
	}
	for _, lvl := range o.HeadingLevels {
		a.addHeading(lvl)
	}
	a.lists = a.lists || o.HasLists
	a.tables = a.tables || o.HasTables
}

func (a *accumulator) result() models.FormatAnalysis {
	levels := make([]int, 0, len(a.levels))
	for lvl := range a.levels {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	languages := a.languages
	if languages == nil {
		languages = []string{}
	}
	return models.FormatAnalysis{
		HasCodeBlocks: a.code,
		CodeLanguages: languages,
		HasHeadings:   len(levels) > 0,
		HeadingLevels: levels,
		HasLists:      a.lists,
		HasTables:     a.tables,
	}
}
