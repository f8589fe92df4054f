package style

import (
	"fmt"
)

// ParseExpression compiles a raw JSON style value (scalar, legacy stops
// object, or expression array) into an Expr.
func ParseExpression(v interface{}) (Expr, error) {
	switch t := v.(type) {
	case nil, bool, float64, string:
		return constant{v: v}, nil

	case map[string]interface{}:
		return parseStopsFunction(t)

	case []interface{}:
		return parseArrayExpression(t)
	}
	return nil, fmt.Errorf("unsupported expression value %v (%T)", v, v)
}

// parseStopsFunction handles the legacy function object
// {"base": b, "stops": [[in, out], ...], "property": p}. Without a property
// the input is the zoom level.
func parseStopsFunction(obj map[string]interface{}) (Expr, error) {
	rawStops, ok := obj["stops"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("function object without stops array: %v", obj)
	}

	base := 1.0
	if b, ok := toFloat(obj["base"]); ok {
		base = b
	}

	var input Expr = zoomExpr{}
	if prop, ok := obj["property"].(string); ok {
		input = getExpr{key: prop}
	}

	stops := make([]stop, 0, len(rawStops))
	for _, rs := range rawStops {
		pair, ok := rs.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("malformed stop %v", rs)
		}
		in, ok := toFloat(pair[0])
		if !ok {
			return nil, fmt.Errorf("non-numeric stop input %v", pair[0])
		}
		out, err := ParseExpression(pair[1])
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop{in: in, out: out})
	}
	return interpolateExpr{base: base, input: input, stops: stops}, nil
}

func parseArrayExpression(arr []interface{}) (Expr, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty expression array")
	}
	op, ok := arr[0].(string)
	if !ok {
		return nil, fmt.Errorf("expression operator must be a string, got %v", arr[0])
	}
	args := arr[1:]

	switch op {
	case "get":
		key, err := argString(op, args, 0)
		if err != nil {
			return nil, err
		}
		return getExpr{key: key}, nil

	case "has":
		key, err := argString(op, args, 0)
		if err != nil {
			return nil, err
		}
		return hasExpr{key: key}, nil

	case "zoom":
		return zoomExpr{}, nil

	case "geometry-type":
		return geomTypeExpr{}, nil

	case "literal":
		if len(args) != 1 {
			return nil, fmt.Errorf("literal takes one argument")
		}
		return constant{v: args[0]}, nil

	case "!":
		if len(args) != 1 {
			return nil, fmt.Errorf("! takes one argument")
		}
		sub, err := ParseExpression(args[0])
		if err != nil {
			return nil, err
		}
		return notExpr{e: sub}, nil

	case "all", "any":
		subs, err := parseAll(args)
		if err != nil {
			return nil, err
		}
		if op == "all" {
			return allExpr{es: subs}, nil
		}
		return anyExpr{es: subs}, nil

	case "==", "!=", "<", "<=", ">", ">=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%v takes two arguments", op)
		}
		a, err := ParseExpression(args[0])
		if err != nil {
			return nil, err
		}
		b, err := ParseExpression(args[1])
		if err != nil {
			return nil, err
		}
		return cmpExpr{op: op, a: a, b: b}, nil

	case "in":
		if len(args) < 2 {
			return nil, fmt.Errorf("in takes a needle and a haystack")
		}
		needle, err := ParseExpression(args[0])
		if err != nil {
			return nil, err
		}
		hay := args[1:]
		// ["in", needle, ["literal", [...]]] style haystack
		if len(hay) == 1 {
			if lit, ok := hay[0].([]interface{}); ok && len(lit) == 2 && lit[0] == "literal" {
				if vals, ok := lit[1].([]interface{}); ok {
					hay = vals
				}
			}
		}
		return inExpr{needle: needle, haystack: constants(hay)}, nil

	case "case":
		if len(args) < 3 || len(args)%2 == 0 {
			return nil, fmt.Errorf("case takes condition/output pairs plus a fallback")
		}
		var branches []caseBranch
		for i := 0; i+1 < len(args); i += 2 {
			cond, err := ParseExpression(args[i])
			if err != nil {
				return nil, err
			}
			out, err := ParseExpression(args[i+1])
			if err != nil {
				return nil, err
			}
			branches = append(branches, caseBranch{cond: cond, out: out})
		}
		fallback, err := ParseExpression(args[len(args)-1])
		if err != nil {
			return nil, err
		}
		return caseExpr{branches: branches, fallback: fallback}, nil

	case "match":
		if len(args) < 2 || len(args)%2 != 0 {
			return nil, fmt.Errorf("match takes input, label/output pairs and a fallback")
		}
		input, err := ParseExpression(args[0])
		if err != nil {
			return nil, err
		}
		var cases []matchCase
		rest := args[1 : len(args)-1]
		for i := 0; i+1 < len(rest); i += 2 {
			var values []interface{}
			if vs, ok := rest[i].([]interface{}); ok {
				values = vs
			} else {
				values = []interface{}{rest[i]}
			}
			out, err := ParseExpression(rest[i+1])
			if err != nil {
				return nil, err
			}
			cases = append(cases, matchCase{values: values, out: out})
		}
		fallback, err := ParseExpression(args[len(args)-1])
		if err != nil {
			return nil, err
		}
		return matchExpr{input: input, cases: cases, fallback: fallback}, nil

	case "coalesce":
		subs, err := parseAll(args)
		if err != nil {
			return nil, err
		}
		return coalesceExpr{es: subs}, nil

	case "concat":
		subs, err := parseAll(args)
		if err != nil {
			return nil, err
		}
		return concatExpr{parts: subs}, nil

	case "interpolate":
		return parseInterpolate(args)

	case "step":
		if len(args) < 2 || len(args)%2 != 0 {
			return nil, fmt.Errorf("step takes input, base and stop pairs")
		}
		input, err := ParseExpression(args[0])
		if err != nil {
			return nil, err
		}
		base, err := ParseExpression(args[1])
		if err != nil {
			return nil, err
		}
		var stops []stop
		for i := 2; i+1 < len(args); i += 2 {
			in, ok := toFloat(args[i])
			if !ok {
				return nil, fmt.Errorf("non-numeric step input %v", args[i])
			}
			out, err := ParseExpression(args[i+1])
			if err != nil {
				return nil, err
			}
			stops = append(stops, stop{in: in, out: out})
		}
		return stepExpr{input: input, base: base, stops: stops}, nil
	}
	return nil, fmt.Errorf("unsupported expression operator %q", op)
}

// parseInterpolate handles
// ["interpolate", ["linear"]|["exponential", base], input, in1, out1, ...].
func parseInterpolate(args []interface{}) (Expr, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("interpolate needs a kind, an input and stops")
	}
	kind, ok := args[0].([]interface{})
	if !ok || len(kind) == 0 {
		return nil, fmt.Errorf("malformed interpolation kind %v", args[0])
	}

	base := 1.0
	switch kind[0] {
	case "linear":
	case "exponential":
		if len(kind) < 2 {
			return nil, fmt.Errorf("exponential interpolation needs a base")
		}
		b, ok := toFloat(kind[1])
		if !ok {
			return nil, fmt.Errorf("non-numeric interpolation base %v", kind[1])
		}
		base = b
	default:
		return nil, fmt.Errorf("unsupported interpolation kind %v", kind[0])
	}

	input, err := ParseExpression(args[1])
	if err != nil {
		return nil, err
	}

	rest := args[2:]
	if len(rest)%2 != 0 {
		return nil, fmt.Errorf("interpolate stops must come in pairs")
	}
	var stops []stop
	for i := 0; i+1 < len(rest); i += 2 {
		in, ok := toFloat(rest[i])
		if !ok {
			return nil, fmt.Errorf("non-numeric interpolate stop input %v", rest[i])
		}
		out, err := ParseExpression(rest[i+1])
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop{in: in, out: out})
	}
	return interpolateExpr{base: base, input: input, stops: stops}, nil
}

// ParseFilter compiles a layer filter. The legacy filter syntax references
// property names as bare strings ("$type" addresses the geometry type);
// arrays that don't match the legacy shape fall through to the expression
// parser.
func ParseFilter(v interface{}) (Expr, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("filter must be a non-empty array, got %v", v)
	}
	op, ok := arr[0].(string)
	if !ok {
		return nil, fmt.Errorf("filter operator must be a string, got %v", arr[0])
	}
	args := arr[1:]

	switch op {
	case "all", "any", "none":
		var subs []Expr
		for _, a := range args {
			sub, err := ParseFilter(a)
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}
		switch op {
		case "all":
			return allExpr{es: subs}, nil
		case "any":
			return anyExpr{es: subs}, nil
		default:
			return notExpr{e: anyExpr{es: subs}}, nil
		}

	case "has", "!has":
		key, err := argString(op, args, 0)
		if err != nil {
			return nil, err
		}
		return hasExpr{key: key, negate: op == "!has"}, nil

	case "in", "!in":
		if len(args) < 1 {
			return nil, fmt.Errorf("%v takes a key and values", op)
		}
		key, keyOK := args[0].(string)
		if !keyOK {
			return nil, fmt.Errorf("%v key must be a string, got %v", op, args[0])
		}
		return inExpr{
			needle:   keyRef(key),
			haystack: constants(args[1:]),
			negate:   op == "!in",
		}, nil

	case "==", "!=", "<", "<=", ">", ">=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%v takes two arguments", op)
		}
		// legacy shape: first argument is a property name
		if key, ok := args[0].(string); ok {
			return cmpExpr{op: op, a: keyRef(key), b: constant{v: args[1]}}, nil
		}
		return parseArrayExpression(arr)
	}

	return parseArrayExpression(arr)
}

func keyRef(key string) Expr {
	if key == "$type" {
		return geomTypeExpr{}
	}
	return getExpr{key: key}
}

func parseAll(args []interface{}) ([]Expr, error) {
	subs := make([]Expr, 0, len(args))
	for _, a := range args {
		sub, err := ParseExpression(a)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func constants(vals []interface{}) []Expr {
	out := make([]Expr, 0, len(vals))
	for _, v := range vals {
		out = append(out, constant{v: v})
	}
	return out
}

func argString(op string, args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%v is missing argument %d", op, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%v argument %d must be a string, got %v", op, i, args[i])
	}
	return s, nil
}
