package evaluator

import (
	"math"
	"strconv"

	"github.com/rshade/aws-pricing-mcp/internal/model"
)

// toFloat coerces a context value or decoded-JSON operand into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// resolveOperand decodes one operand per spec.md §4.6: {constant: N} -> N;
// {variableId: k} or {refer: k} -> context[k]; {value: v} -> v; plain
// number -> itself; missing/other -> 0.
func resolveOperand(ctx ctxTable, raw any) float64 {
	switch v := raw.(type) {
	case float64, float32, int, int64, string:
		f, _ := toFloat(v)
		return f
	case map[string]any:
		if c, ok := v["constant"]; ok {
			f, _ := toFloat(c)
			return f
		}
		if k, ok := v["variableId"].(string); ok {
			return ctx.float(k)
		}
		if k, ok := v["refer"].(string); ok {
			return ctx.float(k)
		}
		if val, ok := v["value"]; ok {
			f, _ := toFloat(val)
			return f
		}
		return 0
	default:
		return 0
	}
}

// applyOperator evaluates one mathsSection component, mutating ctx with its
// result under op.ID and reporting a Subtotal iff op produced a priceDisplay
// entry.
func applyOperator(ctx ctxTable, op model.Component) (Subtotal, bool) {
	switch op.SubType {
	case "display", "conversionDisplay":
		return Subtotal{}, false
	case "priceDisplay":
		costType := op.CostType
		if costType == "" {
			costType = "Monthly"
		}
		return Subtotal{CostType: costType, Value: ctx.float(op.SubTotalRefer)}, true
	case "basicMaths":
		ctx[op.ID] = foldBasicMaths(ctx, op)
		return Subtotal{}, false
	case "maxMin":
		ctx[op.ID] = foldMaxMin(ctx, op)
		return Subtotal{}, false
	case "rounding":
		ctx[op.ID] = applyRounding(ctx, op)
		return Subtotal{}, false
	case "tieredPricingMath":
		ctx[op.ID] = applyTieredPricingMath(ctx, op)
		return Subtotal{}, false
	default:
		return Subtotal{}, false
	}
}

func foldBasicMaths(ctx ctxTable, op model.Component) float64 {
	if len(op.Values) == 0 {
		return 0
	}
	acc := resolveOperand(ctx, op.Values[0])
	for _, raw := range op.Values[1:] {
		v := resolveOperand(ctx, raw)
		switch op.Operation {
		case "multiplication":
			acc *= v
		case "addition":
			acc += v
		case "subtraction":
			acc -= v
		case "division":
			if v == 0 {
				acc = 0
			} else {
				acc /= v
			}
		}
	}
	return acc
}

func foldMaxMin(ctx ctxTable, op model.Component) float64 {
	if len(op.Values) == 0 {
		return 0
	}
	acc := resolveOperand(ctx, op.Values[0])
	for _, raw := range op.Values[1:] {
		v := resolveOperand(ctx, raw)
		switch op.Operation {
		case "Maximum":
			acc = math.Max(acc, v)
		case "Minimum":
			acc = math.Min(acc, v)
		}
	}
	return acc
}

func applyRounding(ctx ctxTable, op model.Component) float64 {
	var input float64
	switch {
	case len(op.Values) > 0:
		input = resolveOperand(ctx, op.Values[0])
	case op.Refer != "":
		input = ctx.float(op.Refer)
	}
	factor := resolveOperand(ctx, op.Factor)
	if factor == 0 {
		return input
	}
	switch op.Method {
	case "roundUp":
		return math.Ceil(input/factor) * factor
	case "roundDown":
		return math.Floor(input/factor) * factor
	default:
		return input
	}
}

func applyTieredPricingMath(ctx ctxTable, op model.Component) float64 {
	remaining := ctx.float(op.InputRefer)
	tiers := ctx.tiers(op.TieredPricingRefer)
	var total float64
	for _, t := range tiers {
		if remaining <= 0 {
			break
		}
		capacity := t.End - t.Start
		if capacity < 0 {
			capacity = 0
		}
		units := math.Min(remaining, capacity)
		if units < 0 {
			units = 0
		}
		total += units * t.Price
		remaining -= units
	}
	return total
}
