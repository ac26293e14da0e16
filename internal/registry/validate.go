package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/ctxlog"
	"github.com/vk/sentgrid/internal/hcl"
)

// ValidateModel performs a strict parity check between a grammar model and
// the registered Go code: every combiner a rule names, every function a value
// expression calls and every declared function must be registered. Value
// expressions may only read `children` and `context`.
func (r *Registry) ValidateModel(ctx context.Context, m *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, rule := range m.Rules {
		if rule.Value != nil {
			errs = append(errs, r.validateValue(rule)...)
			continue
		}
		if _, ok := r.Combiners[rule.Combiner]; !ok {
			errs = append(errs, fmt.Sprintf("rule '%s' at %s: combiner '%s' is not registered", rule.Symbol, rule.Source, rule.Combiner))
		}
	}

	for _, name := range m.Functions {
		if _, ok := r.Functions[name]; !ok {
			errs = append(errs, fmt.Sprintf("function '%s' is declared but not registered", name))
		}
	}

	for _, c := range m.Constants {
		if _, ok := m.Pools[c.Token]; !ok {
			logger.Warn("Constant token has no constant_pool; only per-call constants will be generated.", "symbol", c.Symbol, "token", c.Token)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (r *Registry) validateValue(rule *config.Rule) []string {
	var errs []string
	vars, funcs := hcl.ExprRefs(rule.Value)
	for _, v := range vars {
		errs = append(errs, fmt.Sprintf("rule '%s' at %s: unknown variable '%s'", rule.Symbol, rule.Source, v))
	}
	for _, f := range funcs {
		if _, ok := r.Functions[f]; !ok {
			errs = append(errs, fmt.Sprintf("rule '%s' at %s: function '%s' is not registered", rule.Symbol, rule.Source, f))
		}
	}
	return errs
}
