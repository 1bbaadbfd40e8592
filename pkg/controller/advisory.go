package controller

import (
	"sort"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

// decisionModel holds the fixed texts and confidence of one advisory variant.
type decisionModel struct {
	tag        string
	confidence float64

	deficitRecommendation    string
	sufficientRecommendation string
	surplusRecommendation    string

	deficitExplanation string
	okExplanation      string

	deficitMessage    string
	sufficientMessage string
	surplusMessage    string
}

var decisionModels = map[types.AdvisoryKind]decisionModel{
	types.AdvisoryKindToday: {
		tag:                      types.DecisionModelHeuristic,
		confidence:               0.95,
		deficitRecommendation:    "Reduce load or reschedule",
		sufficientRecommendation: "Maintain current usage",
		surplusRecommendation:    "Run optional devices",
		deficitExplanation:       "based on solar input and usage profile",
		okExplanation:            "based on solar input and usage profile",
		deficitMessage:           "Energy Deficit Detected! Reduce load or reschedule usage to peak solar hours.",
		sufficientMessage:        "Energy is sufficient for today's usage pattern.",
		surplusMessage:           "Energy is sufficient for today's usage pattern. You have surplus energy. Consider running optional appliances or charging devices during the day.",
	},
	types.AdvisoryKindTomorrow: {
		tag:                      types.DecisionModelForecast,
		confidence:               0.90,
		deficitRecommendation:    "Reduce or shift high-power appliances",
		sufficientRecommendation: "Maintain planned usage",
		surplusRecommendation:    "Optional appliance usage encouraged",
		deficitExplanation:       "based on tomorrow's irradiance forecast",
		okExplanation:            "adequate energy projected for next day",
		deficitMessage:           "Projected energy shortfall tomorrow. Consider adjusting appliance usage.",
		sufficientMessage:        "Sufficient energy expected tomorrow based on forecast.",
		surplusMessage:           "Sufficient energy expected tomorrow based on forecast. Consider shifting some flexible loads to tomorrow if surplus persists.",
	},
}

// Classify returns the advisory state for a net balance. Zero is sufficient
// and anything up to and including the surplus threshold is too.
func (c *Controller) Classify(netKWH float64) types.AdvisoryState {
	switch {
	case netKWH < 0:
		return types.AdvisoryStateDeficit
	case netKWH <= c.surplusThresholdKWH:
		return types.AdvisoryStateSufficient
	default:
		return types.AdvisoryStateSurplus
	}
}

// Recommend classifies the balance and builds the advice and its decision
// record. Reduction candidates are only surfaced for a deficit.
func (c *Controller) Recommend(kind types.AdvisoryKind, balance types.EnergyBalance, appliances types.Appliances) types.Advice {
	model, ok := decisionModels[kind]
	if !ok {
		model = decisionModels[types.AdvisoryKindToday]
		kind = types.AdvisoryKindToday
	}

	state := c.Classify(balance.NetKWH)
	advice := types.Advice{
		Kind:  kind,
		State: state,
	}

	var recommendation, explanation string
	switch state {
	case types.AdvisoryStateDeficit:
		advice.Message = model.deficitMessage
		advice.ReductionCandidates = RankByWattage(appliances, c.reductionCandidates)
		recommendation = model.deficitRecommendation
		explanation = model.deficitExplanation
	case types.AdvisoryStateSufficient:
		advice.Message = model.sufficientMessage
		recommendation = model.sufficientRecommendation
		explanation = model.okExplanation
	default:
		advice.Message = model.surplusMessage
		recommendation = model.surplusRecommendation
		explanation = model.okExplanation
	}

	advice.Decision = types.AdvisoryDecision{
		ID:        c.newID(),
		Timestamp: c.now().UTC(),
		Kind:      kind,
		InputSummary: map[string]float64{
			"totalLoadWH":   balance.TotalLoadWH,
			"generationKWH": balance.GenerationKWH,
			"availableKWH":  balance.AvailableKWH,
			"netKWH":        balance.NetKWH,
			"sunHours":      balance.SunHours,
		},
		Recommendation:  recommendation,
		ConfidenceScore: model.confidence,
		DecisionModel:   model.tag,
		Explanation:     explanation,
	}
	return advice
}

// Unavailable builds a zero-confidence advice for when the inputs needed to
// advise are missing.
func (c *Controller) Unavailable(kind types.AdvisoryKind, reason string) types.Advice {
	model, ok := decisionModels[kind]
	if !ok {
		model = decisionModels[types.AdvisoryKindToday]
	}
	return types.Advice{
		Kind:    kind,
		State:   types.AdvisoryStateUnavailable,
		Message: "No advisory possible: " + reason,
		Decision: types.AdvisoryDecision{
			ID:              c.newID(),
			Timestamp:       c.now().UTC(),
			Kind:            kind,
			InputSummary:    map[string]float64{},
			Recommendation:  "No advisory available",
			ConfidenceScore: 0,
			DecisionModel:   model.tag,
			Explanation:     reason,
		},
	}
}

// RankByWattage returns up to limit appliances ordered by wattage, highest
// first. Ties are ordered by ID.
func RankByWattage(appliances types.Appliances, limit int) []types.Appliance {
	ranked := appliances.Sorted()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Watt > ranked[j].Watt
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
