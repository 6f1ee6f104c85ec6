package rules

import "github.com/danielpatrickdp/clause-adjudicator/internal/facts"

// Goal names evaluated by default, in order.
const (
	GoalContraProferentem = "contra_proferentem_applies"
	GoalExclusionFails    = "exclusion_fails"
	GoalMandatoryOverride = "mandatory_law_override"
	GoalClaimMerit        = "claim_merit"
	GoalForceMajeure      = "is_valid_force_majeure"
)

// DefaultGoals is the goal list the adjudicator evaluates when none is
// configured.
func DefaultGoals() []string {
	return []string{
		GoalContraProferentem,
		GoalExclusionFails,
		GoalMandatoryOverride,
		GoalClaimMerit,
		GoalForceMajeure,
	}
}

// #region defaults
// DefaultRules returns the litigation factors and the force majeure model
// (exteriority, unforeseeability, irresistibility and their exclusions).
func DefaultRules() []Rule {
	t, f := facts.Bool(true), facts.Bool(false)
	return []Rule{
		{
			Name:        "contra_proferentem",
			Conditions:  []Condition{{Fact: "is_ambiguous", Value: t}},
			Conclusion:  Conclusion{Fact: GoalContraProferentem, Value: t},
			RiskDelta:   20,
			Description: "ambiguous clause construed against its drafter",
		},
		{
			Name:        "strict_construction_of_exclusions",
			Conditions:  []Condition{{Fact: "is_exclusion_clear", Value: f}},
			Conclusion:  Conclusion{Fact: GoalExclusionFails, Value: t},
			RiskDelta:   15,
			Description: "exclusion not clearly worded fails under strict construction",
		},
		{
			Name:        "mandatory_law_override",
			Conditions:  []Condition{{Fact: "authority_is_mandatory", Value: t}},
			Conclusion:  Conclusion{Fact: GoalMandatoryOverride, Value: t},
			RiskDelta:   20,
			Description: "mandatory rule overrides the contractual term",
		},
		{
			Name:        "plausible_claim",
			Conditions:  []Condition{{Fact: "plaintiff_plausible", Value: t}},
			Conclusion:  Conclusion{Fact: GoalClaimMerit, Value: facts.Enum("PLAUSIBLE")},
			RiskDelta:   10,
			Description: "claimant's position is plausible",
		},
		{
			Name:        "implausible_claim",
			Conditions:  []Condition{{Fact: "plaintiff_plausible", Value: f}},
			Conclusion:  Conclusion{Fact: GoalClaimMerit, Value: facts.Enum("IMPLAUSIBLE")},
			RiskDelta:   -20,
			Description: "claimant's position is implausible",
		},

		{
			Name: "force_majeure_definition",
			Conditions: []Condition{
				{Fact: "is_external", Value: t},
				{Fact: "is_unforeseeable", Value: t},
				{Fact: "is_irresistible", Value: t},
			},
			Conclusion:  Conclusion{Fact: GoalForceMajeure, Value: t},
			Description: "event is external, unforeseeable and irresistible",
		},
		{
			Name:        "economic_hardship_exclusion",
			Conditions:  []Condition{{Fact: "is_economic_change", Value: t}},
			Conclusion:  Conclusion{Fact: "is_irresistible", Value: f},
			Description: "economic hardship is never irresistible",
		},
		{
			Name: "internal_strike_exclusion",
			Conditions: []Condition{
				{Fact: "is_strike", Value: t},
				{Fact: "is_internal_dispute", Value: t},
			},
			Conclusion:  Conclusion{Fact: "is_external", Value: f},
			Description: "a strike internal to the debtor is not external",
		},
		{
			Name: "pandemic_foreseeability",
			Conditions: []Condition{
				{Fact: "is_pandemic", Value: t},
				{Fact: "contract_date_post_2020", Value: t},
			},
			Conclusion:  Conclusion{Fact: "is_unforeseeable", Value: f},
			Description: "a pandemic is foreseeable for contracts signed after 2020",
		},
	}
}

// DefaultRuleSet builds the validated default rule set.
func DefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(DefaultRules())
	if err != nil {
		panic("default rules: " + err.Error())
	}
	return rs
}

// #endregion defaults
