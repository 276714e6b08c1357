package blend

import (
	"go.uber.org/zap"
)

// Outcome is the blended, adjusted and bounded prediction. Final is rounded
// to one decimal; the other values are unrounded.
type Outcome struct {
	Final       float64
	Raw         float64
	Blended     float64
	Base        float64
	Weights     Weights
	Rule        string
	Adjustment  string
	Specificity string
	SafetyNet   bool
}

// Engine combines model output with history and applies the adjustment table.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine creates an engine over rules, DefaultRules when none are given.
func NewEngine(logger *zap.Logger, rules ...Rule) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Engine{rules: rules, logger: logger}
}

// Blend produces the final prediction for in.
func (e *Engine) Blend(in Input) Outcome {
	choice := ChooseWeights(in)
	blended := choice.Model*in.Raw + choice.Historical*choice.Base

	s := Situation{Input: in, Blended: blended, Base: choice.Base}
	value, prefix, rule := blended, "", ""
	for _, r := range e.rules {
		if r.Match(s) {
			value, prefix = r.Apply(s)
			rule = r.Name
			break
		}
	}

	out := Outcome{
		Raw:         in.Raw,
		Blended:     blended,
		Base:        choice.Base,
		Weights:     choice.Weights,
		Rule:        rule,
		Adjustment:  prefix + "_" + choice.Specificity,
		Specificity: choice.Specificity,
	}

	if value < MinMinutes {
		fallback := max(in.GlobalMedian*0.5, 5)
		e.logger.Warn("prediction below one minute, using fallback",
			zap.Float64("value", value),
			zap.Float64("fallback", fallback),
			zap.String("adjustment", out.Adjustment))
		value = fallback
		out.SafetyNet = true
	}
	out.Final = round(clamp(value), 1)

	e.logger.Debug("prediction blended",
		zap.Float64("raw", in.Raw),
		zap.Float64("base", choice.Base),
		zap.Float64("model_weight", choice.Model),
		zap.Float64("historical_weight", choice.Historical),
		zap.Float64("blended", blended),
		zap.String("adjustment", out.Adjustment),
		zap.Float64("final", out.Final))
	return out
}
