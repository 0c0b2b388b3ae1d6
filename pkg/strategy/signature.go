package strategy

import (
	"strconv"
	"strings"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

const maxSignatureClasses = 3

// Signature is the order-independent structural fingerprint of a node.
type Signature map[string]struct{}

// SignatureOf fingerprints n by tag, its first few classes, bucketed child
// count, text length and depth, and whether it holds code, lists or images.
func SignatureOf(n dom.Node) Signature {
	sig := Signature{}
	sig.add("tag", n.Tag())
	classes := n.Classes()
	if len(classes) > maxSignatureClasses {
		classes = classes[:maxSignatureClasses]
	}
	for _, c := range classes {
		sig.add("class", strings.ToLower(c))
	}
	sig.add("children", childBucket(n.ChildCount()))
	sig.add("text", textBucket(n.TextLength()))
	sig.add("depth", depthBucket(n.Depth()))
	sig.add("code", strconv.FormatBool(hasCode(n)))
	sig.add("list", strconv.FormatBool(n.Has("ul, ol")))
	sig.add("image", strconv.FormatBool(n.Has("img, svg, picture")))
	return sig
}

func (s Signature) add(key, value string) {
	s[key+":"+value] = struct{}{}
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func Jaccard(a, b Signature) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for f := range a {
		if _, ok := b[f]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

func childBucket(n int) string {
	switch {
	case n == 0:
		return "none"
	case n <= 3:
		return "few"
	case n <= 10:
		return "some"
	default:
		return "many"
	}
}

func textBucket(n int) string {
	switch {
	case n < 50:
		return "short"
	case n < 200:
		return "medium"
	case n < 1000:
		return "long"
	default:
		return "huge"
	}
}

func depthBucket(n int) string {
	switch {
	case n <= 3:
		return "shallow"
	case n <= 8:
		return "deep"
	default:
		return "nested"
	}
}

// hasCode reports code markup or a markdown fence in the text.
func hasCode(n dom.Node) bool {
	return n.Tag() == "pre" || n.Tag() == "code" || n.Has("pre, code") || strings.Contains(n.Text(), "```")
}
