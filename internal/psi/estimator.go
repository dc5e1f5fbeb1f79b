package psi

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/chandra/internal/patterns"
)

// #region phrases

// wordRe matches runs of Unicode letters, digits and underscores.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// minKeywordRunes is the shortest word counted as a keyword.
const minKeywordRunes = 4

var (
	acknowledgment = patterns.MustCompile("acknowledgment",
		`you're asking`, `you want`, `you mentioned`,
		`as you`, `based on your`, `your question`)
	structure = patterns.MustCompile("structure",
		`first`, `second`, `third`, `finally`,
		`because`, `therefore`, `so`, `thus`,
		`this means`, `which implies`, `as a result`)
	hedging = patterns.MustCompile("hedging",
		`maybe`, `perhaps`, `might`, `could be`,
		`it's possible`, `not sure`, `unclear`)
	contradiction = patterns.MustCompile("contradiction",
		`but actually`, `on the other hand`, `however, i\b`,
		`wait, no`, `actually, that's wrong`)
	contribution = patterns.MustCompile("contribution",
		`let me`, `I'll`, `consider`, `think about`,
		`for example`, `imagine`, `we could`,
		`another way`, `alternatively`)
	inference = patterns.MustCompile("inference",
		`this suggests`, `implies that`, `means we`,
		`following from`, `building on`)
	drift = patterns.MustCompile("drift",
		`by the way`, `speaking of`, `reminds me`,
		`off topic`, `tangent`, `digression`)
)

// #endregion phrases

// #region estimator

// Estimator computes Ψ field telemetry turn by turn and keeps a bounded
// trajectory history. It is not safe for concurrent use: serialize calls or
// allocate one Estimator per conversation.
type Estimator struct {
	config  Config
	history *History
}

// NewEstimator creates an Estimator with an empty history.
func NewEstimator(config Config) *Estimator {
	return &Estimator{config: config, history: NewHistory(config.HistoryCapacity)}
}

// History returns a copy of the stored trajectory, oldest first.
func (e *Estimator) History() []State { return e.history.Snapshot() }

// #endregion estimator

// #region analyze-turn

// AnalyzeTurn computes the State for one exchange and appends it to history.
func (e *Estimator) AnalyzeTurn(prompt, response string, turn int) State {
	promptLower := strings.ToLower(prompt)
	responseLower := strings.ToLower(response)
	promptWords := keywords(promptLower)
	responseWords := keywords(responseLower)

	s := State{
		Lambda:  coupling(promptWords, responseWords, responseLower),
		Kappa:   coherence(responseLower),
		Theta:   autonomy(promptWords, responseWords, responseLower),
		Epsilon: driftScore(prompt, response, promptWords, responseWords, responseLower),
		Turn:    turn,
	}
	e.history.Push(s)
	return s
}

// #endregion analyze-turn

// #region metrics

// coupling is keyword coverage of the prompt plus an acknowledgment bonus.
// No qualifying prompt keywords is neutral (0.5).
func coupling(promptWords, responseWords map[string]struct{}, responseLower string) float64 {
	if len(promptWords) == 0 {
		return 0.5
	}
	raw := coverage(promptWords, responseWords)
	if acknowledgment.Any(responseLower) {
		raw += 0.2
	}
	return math.Min(raw, 1.0)
}

// coherence rewards structural connectives and penalizes hedging and
// self-contradiction around a 0.7 base.
func coherence(responseLower string) float64 {
	structureScore := float64(structure.Count(responseLower)) / 10.0
	hedgingPenalty := float64(hedging.Count(responseLower)) / 10.0
	contradictionPenalty := float64(contradiction.Count(responseLower)) * 0.3
	return clamp(0.7 + structureScore - hedgingPenalty - contradictionPenalty)
}

// autonomy is the share of response keywords absent from the prompt, plus
// bonuses for structural contribution and inference. An empty response is 0.
func autonomy(promptWords, responseWords map[string]struct{}, responseLower string) float64 {
	if len(responseWords) == 0 {
		return 0
	}
	novel := 0
	for w := range responseWords {
		if _, ok := promptWords[w]; !ok {
			novel++
		}
	}
	score := float64(novel) / float64(len(responseWords))
	if contribution.Any(responseLower) {
		score += 0.2
	}
	if inference.Any(responseLower) {
		score += 0.15
	}
	return clamp(score)
}

// driftScore combines explicit tangent markers, over-long responses and
// missing prompt keywords.
func driftScore(prompt, response string, promptWords, responseWords map[string]struct{}, responseLower string) float64 {
	explicit := float64(drift.Count(responseLower)) * 0.3

	var lengthDrift float64
	if queryLen := len(strings.Fields(prompt)); queryLen > 0 {
		ratio := float64(len(strings.Fields(response))) / float64(queryLen)
		lengthDrift = math.Max(0, (ratio-5.0)/10.0)
	}

	var misalignment float64
	if len(promptWords) > 0 {
		misalignment = 1.0 - coverage(promptWords, responseWords)
	}

	return clamp(explicit + lengthDrift*0.3 + misalignment*0.4)
}

// #endregion metrics

// #region velocity

// Velocity returns the rate of change of (κ - (1-λ)) between the two most
// recent history entries. ok is false with fewer than two entries or when
// both share a turn index.
func (e *Estimator) Velocity() (Velocity, bool) {
	recent := e.history.Last(2)
	if len(recent) < 2 {
		return Velocity{}, false
	}
	dt := recent[1].Turn - recent[0].Turn
	if dt == 0 {
		return Velocity{}, false
	}
	deltaR := recent[1].Kappa - recent[0].Kappa
	deltaTau := (1 - recent[1].Lambda) - (1 - recent[0].Lambda)
	v := (deltaR - deltaTau) / float64(dt)
	return Velocity{
		Value:            round3(v),
		DeltaR:           round3(deltaR),
		DeltaTau:         round3(deltaTau),
		SafeThreshold:    e.config.VelocityThreshold,
		ExceedsThreshold: math.Abs(v) > e.config.VelocityThreshold,
	}, true
}

// #endregion velocity

// #region safety

// Check evaluates a single state against the configured thresholds.
func (s State) Check(config Config) SafetyCheck {
	flags := make([]Flag, 0, 3)
	issues := make([]string, 0, 3)

	if s.Lambda < config.MinCoupling {
		flags = append(flags, FlagLowCoupling)
		issues = append(issues, "LOW_COUPLING: Weak operator anchoring")
	}
	if s.Epsilon >= config.EpsilonMax {
		flags = append(flags, FlagHighDrift)
		issues = append(issues, fmt.Sprintf("HIGH_DRIFT: Approaching instability (ε=%.2f)", s.Epsilon))
	}
	if s.Kappa < config.MinCoherence {
		flags = append(flags, FlagLowCoherence)
		issues = append(issues, "LOW_COHERENCE: Field stability at risk")
	}

	status := StatusSafe
	if len(flags) > 0 {
		status = StatusCritical
		if s.Epsilon < config.CriticalEpsilon {
			status = StatusWarning
		}
	}
	return SafetyCheck{
		Status:       status,
		Flags:        flags,
		Issues:       issues,
		WithinBounds: status == StatusSafe,
	}
}

// #endregion safety

// #region attractor

// ClassifyAttractor picks the first matching regime in priority order:
// operator-anchored, coherence-anchored, unstable, transitional.
func ClassifyAttractor(avg Averages, config Config) Attractor {
	switch {
	case avg.Lambda >= config.MinCoupling:
		return AttractorOperatorAnchored
	case avg.Kappa >= 0.85 && avg.Epsilon < 0.2:
		return AttractorCoherenceAnchored
	case avg.Epsilon > config.EpsilonMax:
		return AttractorUnstable
	default:
		return AttractorTransitional
	}
}

// #endregion attractor

// #region conversation

// AnalyzeConversation runs AnalyzeTurn over turns, indexing them from 0, and
// summarizes the resulting trajectory. Velocity is read from the full
// history, so earlier turns on the same Estimator contribute to it.
func (e *Estimator) AnalyzeConversation(turns []Turn) Conversation {
	trajectory := make([]State, 0, len(turns))
	for i, t := range turns {
		trajectory = append(trajectory, e.AnalyzeTurn(t.Prompt, t.Response, i))
	}
	return e.Summarize(trajectory)
}

// Summarize reports on an already computed trajectory without touching
// history. Pass History() to summarize everything the estimator retains.
func (e *Estimator) Summarize(trajectory []State) Conversation {
	avg := average(trajectory)
	conv := Conversation{
		Trajectory: make([]State, len(trajectory)),
		Averages: Averages{
			Lambda:  round3(avg.Lambda),
			Kappa:   round3(avg.Kappa),
			Theta:   round3(avg.Theta),
			Epsilon: round3(avg.Epsilon),
		},
		Attractor: ClassifyAttractor(avg, e.config),
	}
	for i, s := range trajectory {
		conv.Trajectory[i] = s.Rounded()
	}
	if len(trajectory) > 0 {
		last := trajectory[len(trajectory)-1]
		current := last.Rounded()
		check := last.Check(e.config)
		conv.Current = &current
		conv.Safety = &check
	}
	if v, ok := e.Velocity(); ok {
		conv.Velocity = &v
	}
	return conv
}

// #endregion conversation

// #region helpers

// keywords returns the set of words of at least minKeywordRunes runes.
func keywords(lower string) map[string]struct{} {
	words := wordRe.FindAllString(lower, -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minKeywordRunes {
			set[w] = struct{}{}
		}
	}
	return set
}

// coverage is the share of prompt keywords that also occur in the response.
func coverage(promptWords, responseWords map[string]struct{}) float64 {
	if len(promptWords) == 0 {
		return 0
	}
	shared := 0
	for w := range promptWords {
		if _, ok := responseWords[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(promptWords))
}

// average is the per-metric mean; an empty trajectory averages to zero.
func average(states []State) Averages {
	if len(states) == 0 {
		return Averages{}
	}
	var a Averages
	for _, s := range states {
		a.Lambda += s.Lambda
		a.Kappa += s.Kappa
		a.Theta += s.Theta
		a.Epsilon += s.Epsilon
	}
	n := float64(len(states))
	return Averages{
		Lambda:  a.Lambda / n,
		Kappa:   a.Kappa / n,
		Theta:   a.Theta / n,
		Epsilon: a.Epsilon / n,
	}
}

// #endregion helpers
