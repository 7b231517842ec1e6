package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

const calculatorAllowed = "0123456789+-*/(). "

var (
	celEnvOnce sync.Once
	celEnv     *cel.Env
	celEnvErr  error
)

// Calculator returns the calculator tool. Expressions are limited to
// digits, the four operators, parentheses, dots and spaces, and are
// evaluated with CEL in floating point.
func Calculator() tool.Tool {
	return tool.MustNew(tool.NewConfig().
		SetName(NameCalculator).
		SetDescription("Evaluates an arithmetic expression using + - * / and parentheses.").
		SetParameters(schema.Object(map[string]schema.JSON{
			"expression": schema.StringWithDesc("Arithmetic expression, e.g. (350 / 7) * 3 + 15."),
		}, "expression")).
		SetExecuteFunc(calculate))
}

func calculate(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	expr := stringArg(args, "expression", "")

	result, err := Evaluate(expr)
	if err != nil {
		return nil, toolerr.New(NameCalculator, "evaluate", toolerr.CodeInvalidInput,
			fmt.Sprintf("Calculator error for expression '%s': %s", expr, err)).
			WithDetails(map[string]any{"expression": expr})
	}

	return map[string]any{
		"status":     "success",
		"expression": expr,
		"result":     result,
	}, nil
}

// Evaluate computes expr and formats the result in the shortest form that
// round-trips, so "2+2" yields "4" and "1/3" yields "0.3333333333333333".
func Evaluate(expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", errors.New("expression is empty")
	}
	for _, r := range expr {
		if !strings.ContainsRune(calculatorAllowed, r) {
			return "", errors.New("expression contains disallowed characters")
		}
	}

	env, err := calculatorEnv()
	if err != nil {
		return "", err
	}

	src, origin := promoteLiterals(expr)
	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return "", syntaxError(iss.Errors(), origin, len(expr))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return "", err
	}
	out, _, err := prg.Eval(map[string]any{})
	if err != nil {
		return "", err
	}

	v, ok := out.Value().(float64)
	if !ok {
		return "", fmt.Errorf("unexpected result type %T", out.Value())
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", errors.New("division by zero")
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func calculatorEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv()
	})
	return celEnv, celEnvErr
}

// syntaxError reports the first compile error at its position in the
// expression as the caller wrote it. CEL's own message quotes the
// rewritten literals, so only the position is kept.
func syntaxError(errs []*cel.Error, origin []int, n int) error {
	if len(errs) == 0 || errs[0].Location == nil {
		return errors.New("invalid syntax")
	}
	col := errs[0].Location.Column()
	pos := n
	if col >= 0 && col < len(origin) {
		pos = origin[col]
	}
	return fmt.Errorf("invalid syntax at position %d", pos+1)
}

// promoteLiterals rewrites every numeric literal as a double literal so
// CEL never mixes int and double operands. origin maps each byte of the
// result to the byte of expr it came from.
func promoteLiterals(expr string) (string, []int) {
	var b strings.Builder
	b.Grow(len(expr) + 8)
	origin := make([]int, 0, len(expr)+8)

	write := func(s string, at int) {
		b.WriteString(s)
		for range len(s) {
			origin = append(origin, at)
		}
	}

	flush := func(start int, lit string) {
		if strings.HasPrefix(lit, ".") {
			write("0", start)
		}
		for i := range len(lit) {
			write(lit[i:i+1], start+i)
		}
		end := start + len(lit) - 1
		switch {
		case strings.HasSuffix(lit, "."):
			write("0", end)
		case !strings.Contains(lit, "."):
			write(".0", end)
		}
	}

	start := -1
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		isNum := (c >= '0' && c <= '9') || c == '.'
		switch {
		case isNum && start < 0:
			start = i
		case !isNum && start >= 0:
			flush(start, expr[start:i])
			start = -1
			write(expr[i:i+1], i)
		case !isNum:
			write(expr[i:i+1], i)
		}
	}
	if start >= 0 {
		flush(start, expr[start:])
	}
	return b.String(), origin
}
