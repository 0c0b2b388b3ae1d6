package format

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dtnitsch/chat-extract/models"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     models.FormatAnalysis
	}{
		{
			name:     "plain paragraph",
			fragment: `<div><p>Just some words here.</p></div>`,
			want:     models.FormatAnalysis{CodeLanguages: []string{}, HeadingLevels: []int{}},
		},
		{
			name:     "highlighted code block",
			fragment: `<div><p>Try this:</p><pre><code class="language-Go">fmt.Println("hi")</code></pre></div>`,
			want:     models.FormatAnalysis{HasCodeBlocks: true, CodeLanguages: []string{"go"}, HeadingLevels: []int{}},
		},
		{
			name:     "markdown fence in text",
			fragment: "<div class=\"msg ai-answer\">4\n```python\nprint(2+2)\n```\n</div>",
			want:     models.FormatAnalysis{HasCodeBlocks: true, CodeLanguages: []string{"python"}, HeadingLevels: []int{}},
		},
		{
			name:     "headings lists and tables",
			fragment: `<div><h2>Setup</h2><h3>Step</h3><ol><li>one</li></ol><table><tr><td>a</td></tr></table></div>`,
			want: models.FormatAnalysis{
				CodeLanguages: []string{},
				HasHeadings:   true,
				HeadingLevels: []int{2, 3},
				HasLists:      true,
				HasTables:     true,
			},
		},
		{
			name:     "inline code is not a block",
			fragment: `<p>Use <code>go test</code> to run it.</p>`,
			want:     models.FormatAnalysis{CodeLanguages: []string{}, HeadingLevels: []int{}},
		},
		{
			name:     "fence split across paragraphs",
			fragment: "<div><p>Here you go:</p><p>```go\nfmt.Println(1)\n```</p></div>",
			want:     models.FormatAnalysis{HasCodeBlocks: true, CodeLanguages: []string{"go"}, HeadingLevels: []int{}},
		},
		{
			name:     "markdown heading and list in paragraphs",
			fragment: `<div><p>Intro line</p><p># Setup</p><p>- one</p></div>`,
			want: models.FormatAnalysis{
				CodeLanguages: []string{},
				HasHeadings:   true,
				HeadingLevels: []int{1},
				HasLists:      true,
			},
		},
		{
			name:     "markdown in sibling divs",
			fragment: `<section><div>## Plan</div><div>1. first</div></section>`,
			want: models.FormatAnalysis{
				CodeLanguages: []string{},
				HasHeadings:   true,
				HeadingLevels: []int{2},
				HasLists:      true,
			},
		},
		{
			name:     "comment in code is not a heading",
			fragment: "<div><pre><code class=\"lang-python\"># not a heading\nx = 1\n</code></pre></div>",
			want:     models.FormatAnalysis{HasCodeBlocks: true, CodeLanguages: []string{"python"}, HeadingLevels: []int{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.fragment)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzeText(t *testing.T) {
	content := "## Answer\n\n- first\n- second\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```js\nconsole.log(1)\n```\n"
	got := AnalyzeText(content)

	want := models.FormatAnalysis{
		HasCodeBlocks: true,
		CodeLanguages: []string{"js"},
		HasHeadings:   true,
		HeadingLevels: []int{2},
		HasLists:      true,
		HasTables:     true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AnalyzeText() mismatch (-want +got):\n%s", diff)
	}
}
