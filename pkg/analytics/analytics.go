package analytics

import (
	"sort"
	"strings"

	"github.com/dtnitsch/chat-extract/models"
)

type Analytics struct{}

// commonWords are ignored in frequency analysis: English function words plus
// the button labels chat front ends render next to every message.
var commonWords = wordSet(`
a about above across after afterwards again against all almost alone along
already also although always am among amongst amount an and another any
anyhow anyone anything anyway anywhere are aren't around as at back be
became because become becomes becoming been before beforehand behind being
below beside besides between beyond both but by can can't cannot could
couldn't did didn't do does doesn't doing don't done down during each either
else elsewhere enough entirely especially etc even ever every everyone
everything everywhere few for former formerly from further had hadn't has
hasn't have haven't having he he'd he'll he's hence her here hereafter
hereby herein here's hereupon hers herself him himself his how however i i'd
i'll i'm i've if in indeed into is isn't it it's its itself just keep last
latter latterly least less let let's like likely made make many may maybe me
meanwhile might mine more moreover most mostly much must mustn't my myself
neither never nevertheless next no nobody none noone nor not nothing now
nowhere of off often on once one only onto or other others otherwise our
ours ourselves out over own part per perhaps please put rather re same see
seem seemed seeming seems several she she'd she'll she's should shouldn't
since so some somehow someone something sometime sometimes somewhere still
such take than that that's the their theirs them themselves then thence
there thereafter thereby therefore therein there's thereupon these they
they'd they'll they're they've this those through throughout thru thus to
together too toward towards under until up upon us use very via was wasn't
we we'd we'll we're we've well were weren't what whatever what's when whence
whenever where whereafter whereas whereby wherein where's whereupon wherever
whether which while whither who who'd whoever who'll who's whose why with
within without won't would wouldn't yet you you'd you'll you're you've your
yours yourself yourselves ain't it'll shan't that'll when's click button
link menu page pages website site home search loading load copy copied
regenerate share edit retry thumbs upvote downvote sure thanks thank okay ok
yes
`)

func wordSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := commonWords[strings.ToLower(word)]
	return exists
}

func (a *Analytics) WordFrequency(text string) map[string]int {
	words := strings.Fields(strings.ToLower(text)) // strings.Fields handles multiple spaces and newlines
	frequencies := make(map[string]int)

	for _, word := range words {
		// Remove punctuation from words
		word = strings.TrimFunc(word, func(r rune) bool {
			// Keep only lowercase letters and numbers
			return ('a' > r || r > 'z') && ('0' > r || r > '9')
		})

		// Skip if it's a common word, a lone character or empty after cleaning
		if _, exists := commonWords[word]; exists || len(word) < 2 {
			continue
		}

		frequencies[word]++
	}

	return frequencies
}

// Keyword is a word and how often it occurs.
type Keyword struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Summary holds the top keywords of each side of a conversation.
type Summary struct {
	User      []Keyword `json:"user" yaml:"user"`
	Assistant []Keyword `json:"assistant" yaml:"assistant"`
	Overall   []Keyword `json:"overall" yaml:"overall"`
}

// Summarize counts words per message, merges the counts per side and
// returns the n most frequent of each.
func (a *Analytics) Summarize(conv *models.ExtractedConversation, n int) Summary {
	var user, assistant []map[string]int
	for _, r := range conv.Rounds {
		user = append(user, a.WordFrequency(r.User.Text))
		assistant = append(assistant, a.WordFrequency(r.Assistant.Text))
	}
	userCounts := Reduce(user)
	assistantCounts := Reduce(assistant)
	return Summary{
		User:      TopKeywords(userCounts, n),
		Assistant: TopKeywords(assistantCounts, n),
		Overall:   TopKeywords(Reduce([]map[string]int{userCounts, assistantCounts}), n),
	}
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// TopKeywords returns the n most frequent words, most frequent first. Ties
// are broken alphabetically so output is stable.
func TopKeywords(wordCounts map[string]int, n int) []Keyword {
	keywords := make([]Keyword, 0, len(wordCounts))
	for w, c := range wordCounts {
		keywords = append(keywords, Keyword{Word: w, Count: c})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Word < keywords[j].Word
	})

	if n >= 0 && len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}
