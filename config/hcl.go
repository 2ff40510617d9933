package config

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclFile is the top-level layout of an HCL document:
//
//	parameters {
//	  port = 555
//	}
//
//	service "db" {
//	  module = "storage"
//	  class  = "Postgres"
//	  args   = ["$dsn", "@logger"]
//	  factory-method = "Open"
//	  calls  = [{ method = "Ping" }]
//	}
type hclFile struct {
	Services   []hclService   `hcl:"service,block"`
	Parameters *hclParameters `hcl:"parameters,block"`
}

type hclService struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclParameters struct {
	Body hcl.Body `hcl:",remain"`
}

// ParseHCL decodes an HCL document. filename is only used in diagnostics.
func ParseHCL(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	var layout hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &layout); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	doc := newDocument()
	for _, svc := range layout.Services {
		if _, exists := doc.Services[svc.Name]; exists {
			return nil, fmt.Errorf("service %q is defined more than once", svc.Name)
		}
		attrs, err := attributes(svc.Body)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", svc.Name, err)
		}
		doc.Services[svc.Name] = attrs
	}

	if layout.Parameters != nil {
		attrs, err := attributes(layout.Parameters.Body)
		if err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
		for name, value := range attrs {
			doc.Parameters[name] = value
		}
	}
	return doc, nil
}

// attributes evaluates every attribute of body without variables or
// functions, so "$name" and "@name" stay plain strings.
func attributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s", diags.Error())
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("in attribute '%s': %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

// ctyToNative recursively converts a cty.Value to the values the rest of the
// module expects from a decoded document: string, int or float64, bool,
// []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact && i >= math.MinInt && i <= math.MaxInt {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type %s", ty.FriendlyName())
	}
}
