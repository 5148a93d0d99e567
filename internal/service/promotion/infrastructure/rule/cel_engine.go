// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"bazaar/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 CEL 实现。
// 优惠的附加适用条件以 CEL 表达式存储在券/折扣记录上，例如
// `items_total >= 500000 && quantity <= 5`。
// 这是一个典型的适配器：把第三方表达式引擎适配到领域接口。
type CELRuleEngine struct {
	env *cel.Env

	// 编译结果按表达式缓存，同一条规则只编译一次。
	programs map[string]cel.Program
	lock     sync.RWMutex
}

// NewCELRuleEngine 创建规则引擎，声明事实可用的全部变量。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("user_id", cel.IntType),
		cel.Variable("items_total", cel.IntType),
		cel.Variable("quantity", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel environment")
	}
	return &CELRuleEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 实现了 domain.RuleEngine 接口。
func (e *CELRuleEngine) Evaluate(ruleDefinition string, fact domain.Fact) (bool, error) {
	if ruleDefinition == "" {
		return true, nil
	}

	prg, err := e.program(ruleDefinition)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"user_id":     fact.UserID,
		"items_total": fact.ItemsTotal,
		"quantity":    int64(fact.Quantity),
	})
	if err != nil {
		return false, errors.Wrap(err, "evaluate rule")
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("rule did not evaluate to bool: %q", ruleDefinition)
	}
	return result, nil
}

func (e *CELRuleEngine) program(ruleDefinition string) (cel.Program, error) {
	e.lock.RLock()
	prg, ok := e.programs[ruleDefinition]
	e.lock.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(ruleDefinition)
	if iss != nil && iss.Err() != nil {
		// 规则定义本身可能存在语法错误
		return nil, errors.Wrapf(iss.Err(), "compile rule %q", ruleDefinition)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "build program for rule %q", ruleDefinition)
	}

	e.lock.Lock()
	e.programs[ruleDefinition] = prg
	e.lock.Unlock()
	return prg, nil
}
