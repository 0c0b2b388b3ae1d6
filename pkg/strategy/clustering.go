package strategy

import (
	"sort"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/confidence"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/roles"
)

// SimilarityThreshold is the Jaccard similarity a sibling must exceed to join
// a cluster.
const SimilarityThreshold = 0.6

// minClusterText is the text a structural candidate needs unless it holds code.
const minClusterText = 20

// Clustering groups runs of structurally similar sibling candidates and pairs
// the first user and first assistant element of each group.
type Clustering struct {
	opts Options
}

// NewClustering returns the structural clustering strategy.
func NewClustering(opts Options) *Clustering {
	return &Clustering{opts: opts.withDefaults()}
}

func (c *Clustering) Name() string  { return NameClustering }
func (c *Clustering) Priority() int { return 80 }

// Execute fails only when no container is found. No clusters means the
// candidates are paired sequentially instead.
func (c *Clustering) Execute(snap *dom.Snapshot) (*models.ExtractedConversation, error) {
	container, err := locateContainer(snap, c.opts)
	if err != nil {
		return nil, err
	}
	filtered := locate.Candidates(container)

	candidates := structuralCandidates(filtered)
	clusters := Cluster(candidates)

	var rounds []models.ConversationRound
	for _, cluster := range clusters {
		if r, ok := c.pairCluster(cluster); ok {
			rounds = append(rounds, r)
		}
	}
	if len(rounds) == 0 {
		rounds = Pair(filtered, roles.Evidence, confidence.Structural, c.opts)
	}
	return newResult(snap, c.Name(), rounds, len(filtered)), nil
}

func (c *Clustering) pairCluster(cluster []dom.Node) (models.ConversationRound, bool) {
	userIdx, assistantIdx := -1, -1
	for i, n := range cluster {
		switch roles.Classify(n) {
		case models.RoleUser:
			if userIdx < 0 {
				userIdx = i
			}
		case models.RoleAssistant:
			if assistantIdx < 0 {
				assistantIdx = i
			}
		}
		if userIdx >= 0 && assistantIdx >= 0 {
			break
		}
	}
	if userIdx < 0 || assistantIdx < 0 {
		return models.ConversationRound{}, false
	}
	user, assistant := cluster[userIdx], cluster[assistantIdx]
	// Cluster-relative ordinal; callers order rounds by position.
	index := userIdx + assistantIdx
	return buildRound(index, user, assistant, confidence.Structural(user, assistant), len(cluster), c.opts), true
}

// structuralCandidates keeps filtered candidates big enough to be a message:
// some text or code, and some inner structure.
func structuralCandidates(filtered []dom.Node) []dom.Node {
	var out []dom.Node
	for _, n := range filtered {
		if n.TextLength() < minClusterText && !hasCode(n) {
			continue
		}
		if n.ChildCount() == 0 && n.Depth() <= 2 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Cluster seeds a group at each unclaimed candidate and grows it over
// adjacent siblings while they are unclaimed candidates whose signature is
// similar enough to the seed's. Growth in each direction stops at the first
// sibling that fails. Groups smaller than two are dropped; the rest are
// returned largest first, each in document order.
func Cluster(candidates []dom.Node) [][]dom.Node {
	isCandidate := make(map[dom.Node]bool, len(candidates))
	for _, n := range candidates {
		isCandidate[n] = true
	}
	sigs := make(map[dom.Node]Signature, len(candidates))
	signature := func(n dom.Node) Signature {
		s, ok := sigs[n]
		if !ok {
			s = SignatureOf(n)
			sigs[n] = s
		}
		return s
	}

	claimed := make(map[dom.Node]bool, len(candidates))
	joins := func(sib, seed dom.Node) bool {
		return isCandidate[sib] && !claimed[sib] && Jaccard(signature(sib), signature(seed)) > SimilarityThreshold
	}

	var clusters [][]dom.Node
	for _, seed := range candidates {
		if claimed[seed] {
			continue
		}
		claimed[seed] = true

		var before []dom.Node
		for sib, ok := seed.PrevSibling(); ok && joins(sib, seed); sib, ok = sib.PrevSibling() {
			claimed[sib] = true
			before = append(before, sib)
		}
		cluster := make([]dom.Node, 0, len(before)+1)
		for i := len(before) - 1; i >= 0; i-- {
			cluster = append(cluster, before[i])
		}
		cluster = append(cluster, seed)
		for sib, ok := seed.NextSibling(); ok && joins(sib, seed); sib, ok = sib.NextSibling() {
			claimed[sib] = true
			cluster = append(cluster, sib)
		}

		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i]) > len(clusters[j])
	})
	return clusters
}
