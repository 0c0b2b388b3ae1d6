// Package confidence scores how much a user/assistant pairing can be trusted.
// Scores rank candidate pairings against each other; they are not
// probabilities.
package confidence

import (
	"math"
	"strings"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

// Max caps every pairing score.
const Max = 0.95

const (
	structuralBase = 0.60
	pathWeight     = 0.20
	boxBonus       = 0.15
	styleWeight    = 0.15
	maxPathLevels  = 5
	maxVerticalGap = 500.0

	positionalBase    = 0.70
	belowBonus        = 0.20
	classOverlapBonus = 0.10
)

// Structural scores a pairing found by structural clustering: shared ancestor
// path, the assistant box following closely below the user box, and matching
// computed style.
func Structural(user, assistant dom.Node) float64 {
	score := structuralBase + pathWeight*PathOverlap(user, assistant)

	ub, uok := user.Box()
	ab, aok := assistant.Box()
	if uok && aok {
		if ab.Y > ub.Y && ab.Y-ub.Bottom() < maxVerticalGap {
			score += boxBonus
		}
		score += styleWeight * StyleMatch(user, assistant)
	}
	return capped(score)
}

// Positional scores a pairing found by plain document-order adjacency.
func Positional(user, assistant dom.Node) float64 {
	score := positionalBase

	ub, uok := user.Box()
	ab, aok := assistant.Box()
	if uok && aok && ab.Y > ub.Y {
		score += belowBonus
	}
	if sharesClassWord(user, assistant) {
		score += classOverlapBonus
	}
	return capped(score)
}

// PathOverlap compares the nearest maxPathLevels ancestors of a and b level by
// level and returns the matching share of the longer path.
func PathOverlap(a, b dom.Node) float64 {
	pa := ancestorPath(a)
	pb := ancestorPath(b)
	longer := max(len(pa), len(pb))
	if longer == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < min(len(pa), len(pb)); i++ {
		if pa[i] == pb[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}

func ancestorPath(n dom.Node) []string {
	ancestors := n.Ancestors(maxPathLevels)
	path := make([]string, len(ancestors))
	for i, a := range ancestors {
		path[i] = pathToken(a)
	}
	return path
}

func pathToken(n dom.Node) string {
	classes := n.Classes()
	if len(classes) == 0 {
		return n.Tag()
	}
	return n.Tag() + "." + strings.Join(classes, ".")
}

// StyleMatch returns the share of dom.StyleProperties on which a and b agree.
func StyleMatch(a, b dom.Node) float64 {
	la, aok := a.Layout()
	lb, bok := b.Layout()
	if !aok || !bok {
		return 0
	}
	same := 0
	for _, prop := range dom.StyleProperties {
		if la.Style[prop] == lb.Style[prop] {
			same++
		}
	}
	return float64(same) / float64(len(dom.StyleProperties))
}

func sharesClassWord(a, b dom.Node) bool {
	words := make(map[string]bool)
	for _, w := range dom.Words(a.ClassName()) {
		words[w] = true
	}
	for _, w := range dom.Words(b.ClassName()) {
		if words[w] {
			return true
		}
	}
	return false
}

func capped(score float64) float64 {
	return math.Min(score, Max)
}
