// Package config loads the adjudication tables and policy from YAML.
// Sections left out of the file fall back to the compiled defaults. The
// result is built once at startup and never mutated.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/eval"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
	"github.com/danielpatrickdp/clause-adjudicator/internal/rules"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// ErrInvalid marks a config file that failed to parse or validate.
var ErrInvalid = errors.New("invalid config file")

var validate = validator.New()

// #region config
// Config is the fully resolved configuration.
type Config struct {
	Gate      gate.GateConfig
	Policy    verdict.Policy
	Patterns  patterns.Table
	Rules     []rules.Rule
	Goals     []string
	Authority []authority.Entry
	Eval      eval.EvalConfig
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Gate:      gate.DefaultGateConfig(),
		Policy:    verdict.DefaultPolicy(),
		Patterns:  patterns.DefaultTable(),
		Rules:     rules.DefaultRules(),
		Goals:     rules.DefaultGoals(),
		Authority: authority.DefaultEntries(),
		Eval:      eval.DefaultEvalConfig(),
	}
}

// #endregion config

// #region file-schema
type fileConfig struct {
	Gate      *gateFile       `yaml:"gate"`
	Policy    *policyFile     `yaml:"policy"`
	Patterns  *patternsFile   `yaml:"patterns"`
	Rules     []ruleFile      `yaml:"rules" validate:"omitempty,dive"`
	Goals     []string        `yaml:"goals" validate:"omitempty,dive,required"`
	Authority []authorityFile `yaml:"authority" validate:"omitempty,dive"`
	Eval      *evalFile       `yaml:"eval"`
}

type gateFile struct {
	HighThreshold int `yaml:"high_threshold"`
	LowThreshold  int `yaml:"low_threshold" validate:"ltfield=HighThreshold"`
}

type policyFile struct {
	BaseScore           int     `yaml:"base_score" validate:"min=0,max=100"`
	BaseConfidence      float64 `yaml:"base_confidence" validate:"min=0,max=1"`
	PerMatch            float64 `yaml:"per_match" validate:"min=0,max=1"`
	DisagreementPenalty float64 `yaml:"disagreement_penalty" validate:"min=0,max=1"`
	ReviewThreshold     float64 `yaml:"review_threshold" validate:"min=0,max=1"`
	Counterfactuals     int     `yaml:"counterfactuals" validate:"min=0,max=20"`
}

type patternFile struct {
	Text   string `yaml:"text" validate:"required"`
	Weight int    `yaml:"weight" validate:"ne=0"`
	Lang   string `yaml:"lang" validate:"omitempty,alpha,len=2"`
}

type patternsFile struct {
	Languages []string      `yaml:"languages" validate:"omitempty,dive,alpha,len=2"`
	High      []patternFile `yaml:"high" validate:"omitempty,dive"`
	Low       []patternFile `yaml:"low" validate:"omitempty,dive"`
}

type factTestFile struct {
	Fact  string      `yaml:"fact" validate:"required"`
	Value facts.Value `yaml:"value"`
}

type ruleFile struct {
	Name        string         `yaml:"name" validate:"required"`
	Priority    int            `yaml:"priority"`
	RiskDelta   int            `yaml:"risk_delta" validate:"min=-100,max=100"`
	Description string         `yaml:"description"`
	Conditions  []factTestFile `yaml:"conditions" validate:"required,min=1,dive"`
	Conclusion  factTestFile   `yaml:"conclusion"`
}

type authorityFile struct {
	System string `yaml:"system" validate:"required,oneof=CIVIL_LAW COMMON_LAW"`
	Kind   string `yaml:"kind" validate:"required"`
	Level  int    `yaml:"level" validate:"min=0,max=100"`
	Status string `yaml:"status" validate:"required,oneof=MANDATORY DEFAULT PERSUASIVE"`
}

type evalFile struct {
	VerifyDigest   *bool `yaml:"verify_digest"`
	ReviewBlocking bool  `yaml:"review_blocking"`
}

// #endregion file-schema

// #region load
// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, rejecting unknown keys, validates field constraints
// and overlays the result on Default. Table-level checks (duplicates,
// cycles, weight signs) happen when components are built from the Config.
func Parse(data []byte) (Config, error) {
	fc := seededFile()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fault.Configf("config", ErrInvalid, "decode: %v", err)
	}
	if err := validate.Struct(fc); err != nil {
		return Config{}, fault.Configf("config", ErrInvalid, "%v", err)
	}
	return fc.toConfig(), nil
}

// seededFile pre-fills the scalar sections with the defaults so that keys
// left out of a present section keep their default value.
func seededFile() fileConfig {
	def := Default()
	return fileConfig{
		Gate: &gateFile{HighThreshold: def.Gate.HighThreshold, LowThreshold: def.Gate.LowThreshold},
		Policy: &policyFile{
			BaseScore:           def.Policy.BaseScore,
			BaseConfidence:      def.Policy.BaseConfidence,
			PerMatch:            def.Policy.PerMatch,
			DisagreementPenalty: def.Policy.DisagreementPenalty,
			ReviewThreshold:     def.Policy.ReviewThreshold,
			Counterfactuals:     def.Policy.Counterfactuals,
		},
		Eval: &evalFile{VerifyDigest: &def.Eval.VerifyDigest, ReviewBlocking: def.Eval.ReviewBlocking},
	}
}

func (fc fileConfig) toConfig() Config {
	cfg := Default()
	if fc.Gate != nil {
		cfg.Gate = gate.GateConfig{HighThreshold: fc.Gate.HighThreshold, LowThreshold: fc.Gate.LowThreshold}
	}
	if fc.Policy != nil {
		cfg.Policy = verdict.Policy{
			BaseScore:           fc.Policy.BaseScore,
			BaseConfidence:      fc.Policy.BaseConfidence,
			PerMatch:            fc.Policy.PerMatch,
			DisagreementPenalty: fc.Policy.DisagreementPenalty,
			ReviewThreshold:     fc.Policy.ReviewThreshold,
			Counterfactuals:     fc.Policy.Counterfactuals,
		}
	}
	if fc.Patterns != nil {
		if len(fc.Patterns.High) > 0 || len(fc.Patterns.Low) > 0 {
			cfg.Patterns = patterns.Table{High: toPatterns(fc.Patterns.High), Low: toPatterns(fc.Patterns.Low)}
		}
		cfg.Patterns = cfg.Patterns.ForLanguages(fc.Patterns.Languages...)
	}
	if len(fc.Rules) > 0 {
		cfg.Rules = make([]rules.Rule, 0, len(fc.Rules))
		for _, r := range fc.Rules {
			cfg.Rules = append(cfg.Rules, r.toRule())
		}
	}
	if len(fc.Goals) > 0 {
		cfg.Goals = append([]string(nil), fc.Goals...)
	}
	if len(fc.Authority) > 0 {
		cfg.Authority = make([]authority.Entry, 0, len(fc.Authority))
		for _, a := range fc.Authority {
			cfg.Authority = append(cfg.Authority, authority.Entry{
				System: authority.System(a.System),
				Kind:   a.Kind,
				Level:  a.Level,
				Status: authority.BindingStatus(a.Status),
			})
		}
	}
	if fc.Eval != nil {
		if fc.Eval.VerifyDigest != nil {
			cfg.Eval.VerifyDigest = *fc.Eval.VerifyDigest
		}
		cfg.Eval.ReviewBlocking = fc.Eval.ReviewBlocking
	}
	return cfg
}

func toPatterns(in []patternFile) []patterns.Pattern {
	out := make([]patterns.Pattern, 0, len(in))
	for _, p := range in {
		out = append(out, patterns.Pattern{Text: p.Text, Weight: p.Weight, Lang: p.Lang})
	}
	return out
}

func (r ruleFile) toRule() rules.Rule {
	conds := make([]rules.Condition, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		conds = append(conds, rules.Condition{Fact: c.Fact, Value: c.Value})
	}
	return rules.Rule{
		Name:        r.Name,
		Conditions:  conds,
		Conclusion:  rules.Conclusion{Fact: r.Conclusion.Fact, Value: r.Conclusion.Value},
		Priority:    r.Priority,
		RiskDelta:   r.RiskDelta,
		Description: r.Description,
	}
}

// #endregion load
