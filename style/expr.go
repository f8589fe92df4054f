package style

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/atlasdatatech/arctile/feature"
)

// Expr is a compiled style expression. Eval must be pure with respect to
// its arguments: rules are shared across concurrently rendered tiles, so an
// expression may be evaluated from multiple goroutines and must not mutate
// captured state.
type Expr interface {
	Eval(zoom float64, f *feature.Feature) interface{}
}

type constant struct{ v interface{} }

func (c constant) Eval(float64, *feature.Feature) interface{} { return c.v }

type getExpr struct{ key string }

func (e getExpr) Eval(_ float64, f *feature.Feature) interface{} {
	if f == nil {
		return nil
	}
	return f.Props[e.key]
}

type hasExpr struct {
	key    string
	negate bool
}

func (e hasExpr) Eval(_ float64, f *feature.Feature) interface{} {
	if f == nil {
		return e.negate
	}
	_, ok := f.Props[e.key]
	return ok != e.negate
}

// geomTypeExpr evaluates the legacy "$type" key to the GeoJSON-style
// geometry type name.
type geomTypeExpr struct{}

func (geomTypeExpr) Eval(_ float64, f *feature.Feature) interface{} {
	if f == nil {
		return nil
	}
	switch f.Type {
	case feature.Point:
		return "Point"
	case feature.Line:
		return "LineString"
	case feature.Polygon:
		return "Polygon"
	}
	return nil
}

type zoomExpr struct{}

func (zoomExpr) Eval(zoom float64, _ *feature.Feature) interface{} { return zoom }

type notExpr struct{ e Expr }

func (e notExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	return !truthy(e.e.Eval(zoom, f))
}

type allExpr struct{ es []Expr }

func (e allExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	for _, sub := range e.es {
		if !truthy(sub.Eval(zoom, f)) {
			return false
		}
	}
	return true
}

type anyExpr struct{ es []Expr }

func (e anyExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	for _, sub := range e.es {
		if truthy(sub.Eval(zoom, f)) {
			return true
		}
	}
	return false
}

type cmpExpr struct {
	op   string
	a, b Expr
}

func (e cmpExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	av := e.a.Eval(zoom, f)
	bv := e.b.Eval(zoom, f)

	switch e.op {
	case "==":
		return looseEqual(av, bv)
	case "!=":
		return !looseEqual(av, bv)
	}

	an, aok := toFloat(av)
	bn, bok := toFloat(bv)
	if !aok || !bok {
		// ordered comparison also applies to strings
		as, asok := av.(string)
		bs, bsok := bv.(string)
		if !asok || !bsok {
			return false
		}
		switch e.op {
		case "<":
			return as < bs
		case "<=":
			return as <= bs
		case ">":
			return as > bs
		case ">=":
			return as >= bs
		}
		return false
	}

	switch e.op {
	case "<":
		return an < bn
	case "<=":
		return an <= bn
	case ">":
		return an > bn
	case ">=":
		return an >= bn
	}
	return false
}

type inExpr struct {
	needle   Expr
	haystack []Expr
	negate   bool
}

func (e inExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	nv := e.needle.Eval(zoom, f)
	for _, h := range e.haystack {
		if looseEqual(nv, h.Eval(zoom, f)) {
			return !e.negate
		}
	}
	return e.negate
}

type caseBranch struct {
	cond Expr
	out  Expr
}

type caseExpr struct {
	branches []caseBranch
	fallback Expr
}

func (e caseExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	for _, br := range e.branches {
		if truthy(br.cond.Eval(zoom, f)) {
			return br.out.Eval(zoom, f)
		}
	}
	return e.fallback.Eval(zoom, f)
}

type matchCase struct {
	values []interface{}
	out    Expr
}

type matchExpr struct {
	input    Expr
	cases    []matchCase
	fallback Expr
}

func (e matchExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	in := e.input.Eval(zoom, f)
	for _, c := range e.cases {
		for _, v := range c.values {
			if looseEqual(in, v) {
				return c.out.Eval(zoom, f)
			}
		}
	}
	return e.fallback.Eval(zoom, f)
}

type coalesceExpr struct{ es []Expr }

func (e coalesceExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	for _, sub := range e.es {
		if v := sub.Eval(zoom, f); v != nil {
			return v
		}
	}
	return nil
}

type concatExpr struct{ parts []Expr }

func (e concatExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	out := ""
	for _, p := range e.parts {
		if v := p.Eval(zoom, f); v != nil {
			out += fmt.Sprintf("%v", v)
		}
	}
	return out
}

type stop struct {
	in  float64
	out Expr
}

// interpolateExpr covers both expression-syntax interpolation and legacy
// stops functions. A base of 1 interpolates linearly; other bases
// exponentially. Non-numeric outputs degrade to step lookup.
type interpolateExpr struct {
	base  float64
	input Expr
	stops []stop
}

func (e interpolateExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	if len(e.stops) == 0 {
		return nil
	}
	in, ok := toFloat(e.input.Eval(zoom, f))
	if !ok {
		return e.stops[0].out.Eval(zoom, f)
	}

	if in <= e.stops[0].in {
		return e.stops[0].out.Eval(zoom, f)
	}
	last := e.stops[len(e.stops)-1]
	if in >= last.in {
		return last.out.Eval(zoom, f)
	}

	hi := 1
	for hi < len(e.stops) && e.stops[hi].in <= in {
		hi++
	}
	lo := hi - 1

	lov := e.stops[lo].out.Eval(zoom, f)
	hiv := e.stops[hi].out.Eval(zoom, f)
	lon, lok := toFloat(lov)
	hin, hok := toFloat(hiv)
	if !lok || !hok {
		return lov
	}

	span := e.stops[hi].in - e.stops[lo].in
	t := (in - e.stops[lo].in) / span
	if e.base != 1 {
		t = (math.Pow(e.base, in-e.stops[lo].in) - 1) / (math.Pow(e.base, span) - 1)
	}
	return lon + (hin-lon)*t
}

type stepExpr struct {
	input Expr
	base  Expr
	stops []stop
}

func (e stepExpr) Eval(zoom float64, f *feature.Feature) interface{} {
	in, ok := toFloat(e.input.Eval(zoom, f))
	if !ok {
		return e.base.Eval(zoom, f)
	}
	out := e.base
	for _, s := range e.stops {
		if in < s.in {
			break
		}
		out = s.out
	}
	return out.Eval(zoom, f)
}

// truthy follows the style language's notion of falseness: only nil and
// false are false.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// looseEqual compares with numeric coercion so a decoded int64 attribute
// matches a JSON float64 literal.
func looseEqual(a, b interface{}) bool {
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return an == bn
		}
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
