package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/chat-extract/models"
)

// Round types a filter may select on, read from the assistant's format
// analysis.
const (
	TypeCode     = "code"
	TypeHeadings = "headings"
	TypeLists    = "lists"
	TypeTables   = "tables"
)

var knownTypes = map[string]struct{}{
	TypeCode: {}, TypeHeadings: {}, TypeLists: {}, TypeTables: {},
}

type Filter struct {
	MinConfidence float64
	RoundTypes    map[string]struct{}
}

// ParseFilter reads a filter such as "conf:>=0.8,type:code|tables". An empty
// string keeps every round.
func ParseFilter(filterStr string) (*Filter, error) {
	if filterStr == "" {
		return &Filter{MinConfidence: 0.0, RoundTypes: nil}, nil // No-op filter
	}

	filter := &Filter{
		MinConfidence: 0.0,
		RoundTypes:    make(map[string]struct{}),
	}

	parts := strings.Split(filterStr, ",")
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid filter part: %s", part)
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "conf":
			if strings.HasPrefix(value, ">=") {
				f, err := strconv.ParseFloat(strings.TrimSpace(value[2:]), 64)
				if err != nil {
					return nil, fmt.Errorf("invalid confidence value: %s", value)
				}
				filter.MinConfidence = f
			} else {
				return nil, fmt.Errorf("unsupported confidence operator in: %s", value)
			}
		case "type":
			types := strings.Split(value, "|")
			for _, t := range types {
				t = strings.TrimSpace(t)
				if _, ok := knownTypes[t]; !ok {
					return nil, fmt.Errorf("unknown round type: %s", t)
				}
				filter.RoundTypes[t] = struct{}{}
			}
		default:
			return nil, fmt.Errorf("unknown filter key: %s", key)
		}
	}

	return filter, nil
}

// FilterConversation returns a copy of conv holding only the rounds that pass
// the filter. Round counts and aggregate confidence are recomputed; the
// original is left untouched.
func FilterConversation(conv *models.ExtractedConversation, filter *Filter) *models.ExtractedConversation {
	if filter == nil || (filter.MinConfidence <= 0 && len(filter.RoundTypes) == 0) {
		return conv // No filtering
	}

	filtered := *conv
	filtered.Rounds = []models.ConversationRound{}
	for _, round := range conv.Rounds {
		// Apply filters
		if round.Confidence < filter.MinConfidence {
			continue
		}
		if len(filter.RoundTypes) > 0 && !matchesType(round, filter.RoundTypes) {
			continue
		}

		// If all filters pass, keep the round
		filtered.Rounds = append(filtered.Rounds, round)
	}

	filtered.Confidence = models.MeanConfidence(filtered.Rounds)
	filtered.ExtractionStats.TotalRounds = len(filtered.Rounds)
	if len(filtered.Rounds) == 0 {
		filtered.ExtractionStats.SuccessRate = 0
	}
	return &filtered
}

// matchesType reports whether the assistant side shows any selected feature.
func matchesType(round models.ConversationRound, types map[string]struct{}) bool {
	fa := round.Assistant.FormatAnalysis
	if fa == nil {
		return false
	}
	has := map[string]bool{
		TypeCode:     fa.HasCodeBlocks,
		TypeHeadings: fa.HasHeadings,
		TypeLists:    fa.HasLists,
		TypeTables:   fa.HasTables,
	}
	for t := range types {
		if has[t] {
			return true
		}
	}
	return false
}
