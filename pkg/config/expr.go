package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Env 表达式可见的常量（WALL_WIDTH、WALL_HEIGHT 等）
type Env map[string]float64

func (e Env) params() map[string]interface{} {
	params := make(map[string]interface{}, len(e))
	for k, v := range e {
		params[k] = v
	}
	return params
}

// Expr 配置中的数值标量
//
// 可以是普通数字，也可以是引用 Env 常量的 tengo 表达式，例如：
//
//	position: [-WALL_DEPTH/2 + 500, WALL_HEIGHT/2, 0]
type Expr struct {
	src     string
	value   float64
	literal bool
}

// Number 返回值为 v 的字面量表达式
func Number(v float64) Expr {
	return Expr{src: strconv.FormatFloat(v, 'g', -1, 64), value: v, literal: true}
}

// Formula 返回一个未求值的表达式
func Formula(src string) Expr {
	if v, err := strconv.ParseFloat(strings.TrimSpace(src), 64); err == nil {
		return Number(v)
	}
	return Expr{src: strings.TrimSpace(src)}
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected number or expression", node.Line)
	}
	*e = Formula(node.Value)
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (e Expr) MarshalYAML() (interface{}, error) {
	if e.literal {
		return e.value, nil
	}
	return e.src, nil
}

// String 返回表达式源码
func (e Expr) String() string {
	return e.src
}

// IsZero 未设置的表达式
func (e Expr) IsZero() bool {
	return e.src == ""
}

// Eval 在 env 中求值
func (e Expr) Eval(env Env) (float64, error) {
	if e.literal {
		return e.value, nil
	}
	if e.src == "" {
		return 0, nil
	}

	res, err := tengo.Eval(context.Background(), e.src, env.params())
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %q: %w", e.src, err)
	}
	switch v := res.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expression %q is not a number (got %T)", e.src, res)
	}
}

// evalVec3 求值三维向量
func evalVec3(exprs []Expr, env Env) (mgl64.Vec3, error) {
	if len(exprs) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(exprs))
	}
	var out mgl64.Vec3
	for i, e := range exprs {
		v, err := e.Eval(env)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		out[i] = v
	}
	return out, nil
}

// evalVec2 求值二维向量
func evalVec2(exprs []Expr, env Env) (mgl64.Vec2, error) {
	if len(exprs) != 2 {
		return mgl64.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(exprs))
	}
	var out mgl64.Vec2
	for i, e := range exprs {
		v, err := e.Eval(env)
		if err != nil {
			return mgl64.Vec2{}, err
		}
		out[i] = v
	}
	return out, nil
}
