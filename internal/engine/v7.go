package engine

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/domain"
)

// Contribution status values in the V7 breakdown.
const (
	statusAligned  = "aligned"
	statusNeutral  = "neutral"
	statusOpposing = "opposing"
)

// neutralDiscount is applied to non-directional contributions.
const neutralDiscount = 0.6

// opposingPenaltyFactor softens the opposition penalty relative to a full
// contribution.
const opposingPenaltyFactor = 0.7

// extraFactors give diminishing returns to positive sources beyond the top 2.
var extraFactors = []float64{0.5, 0.3, 0.15, 0.1}

// capByAligned and capByTotal bound a score by how broad its support is. The
// effective cap is the more permissive of the two.
var capByAligned = map[int]float64{0: 40, 1: 55, 2: 85, 3: 95, 4: 100}
var capByTotal = map[int]float64{1: 45, 2: 65, 3: 80, 4: 92, 5: 97}

// confluenceMultipliers reward breadth of the positive pool.
var confluenceMultipliers = map[int]float64{1: 1.00, 2: 1.08, 3: 1.18, 4: 1.28, 5: 1.35, 6: 1.40, 7: 1.40}

// V7 is the directional confluence ranker. It consumes the V2 ranking plus
// the raw directional artifacts, detects a dominant direction per ticker, and
// rewards agreement while penalizing opposition.
type V7 struct {
	Now func() time.Time
	log zerolog.Logger
}

// NewV7 creates the confluence ranker.
func NewV7(log zerolog.Logger) *V7 {
	return &V7{
		Now: time.Now,
		log: log.With().Str("component", "engine_v7").Logger(),
	}
}

// Rank produces the final ranking from the V2 output and the raw inputs.
// minScore filters the result; pass 0 to keep everything.
func (e *V7) Rank(v2Ranking []domain.RankedTicker, in Inputs, minScore float64) []domain.RankedTicker {
	directions := DetectDirections(in)

	var ranked []domain.RankedTicker
	for _, v2row := range v2Ranking {
		row := e.scoreTicker(v2row, directions[v2row.Ticker])
		if row.Score >= minScore {
			ranked = append(ranked, row)
		}
	}

	SortRanking(ranked)
	return ranked
}

// scoreTicker applies the confluence formula to one ticker.
func (e *V7) scoreTicker(v2row domain.RankedTicker, detected map[string]string) domain.RankedTicker {
	breakdown := &domain.V7Breakdown{}
	row := domain.RankedTicker{
		Ticker:      v2row.Ticker,
		Company:     v2row.Company,
		Direction:   domain.DirectionNone,
		Sources:     v2row.Sources,
		SourceCount: v2row.SourceCount,
		SignalDate:  v2row.SignalDate,
		Convictions: v2row.Convictions,
		Signals:     v2row.Signals,
		V7:          breakdown,
	}

	// Contributing sources are those with positive V2 conviction.
	type sourceState struct {
		source     string
		conviction float64
		direction  string
	}
	var states []sourceState
	for _, src := range v2row.Sources {
		conv := v2row.Convictions[src]
		if conv <= 0 {
			continue
		}
		dir := domain.DirectionNeutral
		if !domain.AlwaysNeutralSources[src] {
			if d, ok := detected[src]; ok {
				dir = d
			}
		}
		states = append(states, sourceState{source: src, conviction: conv, direction: dir})
	}
	if len(states) == 0 {
		return row
	}

	// Dominant direction by weighted conviction votes; ties go bullish.
	var bullVotes, bearVotes float64
	for _, s := range states {
		w := domain.SourceWeights[s.source]
		switch s.direction {
		case domain.DirectionBullish:
			bullVotes += w * s.conviction
		case domain.DirectionBearish:
			bearVotes += w * s.conviction
		}
	}
	dominant := domain.DirectionNone
	if bullVotes > 0 || bearVotes > 0 {
		if bullVotes >= bearVotes {
			dominant = domain.DirectionBullish
		} else {
			dominant = domain.DirectionBearish
		}
	}
	breakdown.Dominant = dominant
	breakdown.BullishVotes = round1(bullVotes)
	breakdown.BearishVotes = round1(bearVotes)
	row.Direction = dominant

	// Classify each source relative to the dominant direction.
	var positive, opposing []domain.SourceContribution
	alignedActive, alignedPassive := 0, 0
	for _, s := range states {
		w := domain.SourceWeights[s.source]
		c := domain.SourceContribution{
			Source:     s.source,
			Direction:  s.direction,
			Conviction: s.conviction,
		}
		switch {
		case dominant != domain.DirectionNone && s.direction == dominant:
			c.Status = statusAligned
			c.EffectiveConviction = s.conviction
			c.Contribution = w * s.conviction / 100
			positive = append(positive, c)
			if domain.ActiveSources[s.source] {
				alignedActive++
			} else {
				alignedPassive++
			}
		case s.direction == domain.DirectionNeutral || dominant == domain.DirectionNone:
			c.Status = statusNeutral
			c.EffectiveConviction = s.conviction * neutralDiscount
			c.Contribution = w * c.EffectiveConviction / 100
			positive = append(positive, c)
		default:
			c.Status = statusOpposing
			c.EffectiveConviction = 0
			c.Contribution = -(w * s.conviction / 100) * opposingPenaltyFactor
			opposing = append(opposing, c)
		}
	}

	sort.Slice(positive, func(i, j int) bool {
		if positive[i].EffectiveConviction != positive[j].EffectiveConviction {
			return positive[i].EffectiveConviction > positive[j].EffectiveConviction
		}
		return positive[i].Source < positive[j].Source
	})

	// Base: weighted average of the top-2 positive contributions on 0-100.
	base := 0.0
	topN := len(positive)
	if topN > 2 {
		topN = 2
	}
	if topN > 0 {
		var sumContrib, sumWeight float64
		for _, c := range positive[:topN] {
			sumContrib += c.Contribution
			sumWeight += domain.SourceWeights[c.Source]
		}
		if sumWeight > 0 {
			base = sumContrib / sumWeight * 100
		}
	}

	// Extras: remaining positive sources at diminishing factors.
	extra := 0.0
	if len(positive) > 2 {
		for i, c := range positive[2:] {
			factor := extraFactors[len(extraFactors)-1]
			if i < len(extraFactors) {
				factor = extraFactors[i]
			}
			extra += factor * c.Contribution
		}
	}

	dirBonus := 0.0
	if alignedActive > 1 {
		dirBonus += float64(alignedActive-1) * 6
	}
	dirBonus += float64(alignedPassive) * 2

	penalty := 0.0
	for _, c := range opposing {
		if c.Contribution < 0 {
			penalty += -c.Contribution
		} else {
			penalty += c.Contribution
		}
	}

	totalSources := len(positive)
	cap := scoreCap(alignedActive, totalSources)
	confluence := confluenceMultiplier(totalSources)

	score := clamp((base+extra+dirBonus-penalty)*confluence, 0, cap)

	breakdown.Base = round1(base)
	breakdown.Extra = round1(extra)
	breakdown.DirectionBonus = round1(dirBonus)
	breakdown.Penalty = round1(penalty)
	breakdown.Cap = cap
	breakdown.ConfluenceMultiplier = confluence
	breakdown.AlignedActive = alignedActive
	breakdown.AlignedPassive = alignedPassive
	breakdown.TotalSources = totalSources
	breakdown.Contributions = append(positive, opposing...)
	for i := range breakdown.Contributions {
		c := &breakdown.Contributions[i]
		c.EffectiveConviction = round1(c.EffectiveConviction)
		c.Contribution = round2(c.Contribution)
	}

	row.Score = round1(score)
	// Kept for UI continuity with the V2 ranking.
	row.MultiSourceBonus = round1(extra + dirBonus)
	return row
}

// scoreCap returns the more permissive of the aligned-active and total-source
// caps.
func scoreCap(alignedActive, totalSources int) float64 {
	a, ok := capByAligned[alignedActive]
	if !ok {
		a = 100
	}
	if totalSources > 5 {
		totalSources = 5
	}
	t, ok := capByTotal[totalSources]
	if !ok {
		t = 100
		if totalSources < 1 {
			t = 0
		}
	}
	if a > t {
		return a
	}
	return t
}

func confluenceMultiplier(totalSources int) float64 {
	if totalSources > 7 {
		totalSources = 7
	}
	if m, ok := confluenceMultipliers[totalSources]; ok {
		return m
	}
	return 1.0
}
