package intake

import (
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// ErrAdmissionRuleInvalid is returned when a group's admission_rule does
// not compile or does not evaluate to a bool.
var ErrAdmissionRuleInvalid = errors.New("intake: admission rule invalid")

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("sender", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("hour_of_day", cel.IntType),
		cel.Variable("is_main", cel.BoolType),
	)
})

// admissionCacheMu/admissionCache memoize compiled programs per rule
// string, since a group's rule is evaluated on every inbound message.
var (
	admissionCacheMu sync.Mutex
	admissionCache   = map[string]cel.Program{}
)

func compileAdmissionRule(rule string) (cel.Program, error) {
	admissionCacheMu.Lock()
	defer admissionCacheMu.Unlock()

	if prg, ok := admissionCache[rule]; ok {
		return prg, nil
	}

	env, err := celEnv()
	if err != nil {
		return nil, errors.Wrap(err, "intake: build CEL env")
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(ErrAdmissionRuleInvalid, "compile %q: %v", rule, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "intake: build CEL program")
	}
	admissionCache[rule] = prg
	return prg, nil
}

// EvaluateAdmission runs a group's optional CEL admission_rule. It is
// always a second gate, evaluated only after the trigger-prefix match
// already passed.
func EvaluateAdmission(rule, sender, content string, at time.Time, isMain bool) (bool, error) {
	if rule == "" {
		return true, nil
	}
	prg, err := compileAdmissionRule(rule)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"sender":      sender,
		"content":     content,
		"hour_of_day": int64(at.Hour()),
		"is_main":     isMain,
	})
	if err != nil {
		return false, errors.Wrapf(ErrAdmissionRuleInvalid, "eval %q: %v", rule, err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, errors.Wrapf(ErrAdmissionRuleInvalid, "rule %q did not evaluate to bool", rule)
	}
	return allowed, nil
}
