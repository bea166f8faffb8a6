package evaluator

import (
	"fmt"

	"github.com/rshade/aws-pricing-mcp/internal/model"
)

// evalDisplayIf evaluates a displayIf guard (spec.md §4.6). A nil or
// unrecognized shape is always true — the guard is advisory, not validating.
func evalDisplayIf(node any, ctx ctxTable, tables map[string]model.PricingTable) bool {
	if node == nil {
		return true
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return true
	}

	if v, ok := obj["exists"]; ok {
		return evalExists(v, tables)
	}
	if v, ok := obj["and"]; ok {
		return evalAnd(v, ctx, tables)
	}
	if v, ok := obj["or"]; ok {
		return evalOr(v, ctx, tables)
	}
	if v, ok := obj["not"]; ok {
		return !evalDisplayIf(v, ctx, tables)
	}
	if v, ok := obj["=="]; ok {
		return evalEquals(v, ctx)
	}
	return true
}

func evalExists(v any, tables map[string]model.PricingTable) bool {
	spec, ok := v.(map[string]any)
	if !ok {
		return true
	}
	mdn, _ := spec["mappingDefinitionName"].(string)
	unit, _ := spec["meteredUnit"].(string)
	table, ok := tables[mdn]
	if !ok {
		return false
	}
	_, found := table[unit]
	return found
}

func evalAnd(v any, ctx ctxTable, tables map[string]model.PricingTable) bool {
	list, ok := v.([]any)
	if !ok {
		return true
	}
	for _, item := range list {
		if !evalDisplayIf(item, ctx, tables) {
			return false
		}
	}
	return true
}

func evalOr(v any, ctx ctxTable, tables map[string]model.PricingTable) bool {
	list, ok := v.([]any)
	if !ok {
		return true
	}
	for _, item := range list {
		if evalDisplayIf(item, ctx, tables) {
			return true
		}
	}
	return false
}

func evalEquals(v any, ctx ctxTable) bool {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return true
	}
	return resolveEqOperand(list[0], ctx) == resolveEqOperand(list[1], ctx)
}

func resolveEqOperand(v any, ctx ctxTable) string {
	if obj, ok := v.(map[string]any); ok {
		if t, _ := obj["type"].(string); t == "component" {
			id, _ := obj["id"].(string)
			return ctx.string(id)
		}
	}
	return fmt.Sprintf("%v", v)
}
