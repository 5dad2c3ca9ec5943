// Package plan turns a parsed GraphQL operation into the initial selection
// tree the Resolver Engine walks (spec §4.7 step 1): every field is bound
// to either ResolverExtractor or ResolverFetcher based on the composed
// schema's Field.Extend, fragments and inline fragments are flattened,
// @skip/@include are evaluated eagerly, and __schema/__type/__typename are
// bound to pre-computed introspection values so the resolver never
// dispatches them to a subgraph.
package plan

import (
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/introspection"
	"github.com/fedgraph/gateway/internal/language"
	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// Operation is one planned root operation ready for the Resolver Engine.
type Operation struct {
	Type   subgraph.OperationType
	Fields []*selection.Field
}

// Build plans operationName (or the document's sole operation) against the
// extended schema. original is the pre-introspection schema used to
// answer __schema/__type queries.
func Build(doc *language.QueryDocument, operationName string, variables map[string]any, extended, original *schema.Schema) (*Operation, error) {
	opDef := doc.Operations.ForName(operationName)
	if opDef == nil {
		if len(doc.Operations) == 1 {
			opDef = doc.Operations[0]
		} else if operationName == "" {
			return nil, validationErrorf("plan: document declares more than one operation, operationName is required")
		} else {
			return nil, validationErrorf("plan: no operation named %q", operationName)
		}
	}

	opType, rootTypeName := rootFor(extended, opDef.Operation)
	rootType := extended.Types[rootTypeName]
	if rootType == nil {
		return nil, gqlerr.NewConfigurationError("plan: schema has no root type for %s", opDef.Operation)
	}

	b := &builder{doc: doc, variables: variables, extended: extended, original: original}
	fields, err := b.selectionSet(opDef.SelectionSet, rootType)
	if err != nil {
		return nil, err
	}
	return &Operation{Type: opType, Fields: fields}, nil
}

func validationErrorf(format string, args ...any) *gqlerr.ValidationError {
	return gqlerr.NewValidationError(fmt.Errorf(format, args...))
}

func rootFor(sch *schema.Schema, op language.Operation) (subgraph.OperationType, string) {
	switch op {
	case language.Mutation:
		return subgraph.Mutation, sch.MutationType
	case language.Subscription:
		return subgraph.Subscription, sch.SubscriptionType
	default:
		return subgraph.Query, sch.QueryType
	}
}

type builder struct {
	doc       *language.QueryDocument
	variables map[string]any
	extended  *schema.Schema
	original  *schema.Schema
}

// selectionSet expands a selection set (fields, fragment spreads, inline
// fragments) against the schema type it's selected on, into a flat,
// resolver-bound field list.
func (b *builder) selectionSet(set language.SelectionSet, parentType *schema.Type) ([]*selection.Field, error) {
	var out []*selection.Field
	for _, sel := range set {
		switch node := sel.(type) {
		case *ast.Field:
			include, err := b.evalDirectives(node.Directives)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
			f, err := b.field(node, parentType, nil)
			if err != nil {
				return nil, err
			}
			if f != nil {
				out = append(out, f)
			}
		case *ast.FragmentSpread:
			include, err := b.evalDirectives(node.Directives)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
			frag := b.doc.Fragments.ForName(node.Name)
			if frag == nil {
				return nil, validationErrorf("plan: unknown fragment %q", node.Name)
			}
			targets := narrowTargets(parentType.Name, frag.TypeCondition, b.extended)
			fields, err := b.selectionSet(frag.SelectionSet, resolveType(b.extended, frag.TypeCondition, parentType))
			if err != nil {
				return nil, err
			}
			applyTargets(fields, targets)
			out = append(out, fields...)
		case *ast.InlineFragment:
			include, err := b.evalDirectives(node.Directives)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
			cond := node.TypeCondition
			targets := narrowTargets(parentType.Name, cond, b.extended)
			fields, err := b.selectionSet(node.SelectionSet, resolveType(b.extended, cond, parentType))
			if err != nil {
				return nil, err
			}
			applyTargets(fields, targets)
			out = append(out, fields...)
		}
	}
	return out, nil
}

func resolveType(sch *schema.Schema, name string, fallback *schema.Type) *schema.Type {
	if name == "" {
		return fallback
	}
	if t, ok := sch.Types[name]; ok {
		return t
	}
	return fallback
}

// narrowTargets reports the concrete type set a fragment's TypeCondition
// restricts its fields to, relative to parentType. An empty result means no
// narrowing is needed (the condition matches parentType exactly).
func narrowTargets(parentTypeName, condition string, sch *schema.Schema) []string {
	if condition == "" || condition == parentTypeName {
		return nil
	}
	if t, ok := sch.Types[condition]; ok && (t.Kind == schema.TypeKindObject) {
		return []string{condition}
	}
	return nil
}

func applyTargets(fields []*selection.Field, targets []string) {
	if len(targets) == 0 {
		return
	}
	for _, f := range fields {
		if len(f.Targets) == 0 {
			f.Targets = targets
		}
	}
}

// evalDirectives evaluates @skip/@include; the selection is included unless
// @skip(if: true) or @include(if: false) is present.
func (b *builder) evalDirectives(dirs language.DirectiveList) (bool, error) {
	include := true
	if d := dirs.ForName("skip"); d != nil {
		v, err := b.boolArg(d, "if")
		if err != nil {
			return false, err
		}
		if v {
			include = false
		}
	}
	if d := dirs.ForName("include"); d != nil {
		v, err := b.boolArg(d, "if")
		if err != nil {
			return false, err
		}
		if !v {
			include = false
		}
	}
	return include, nil
}

func (b *builder) boolArg(d *language.Directive, name string) (bool, error) {
	arg := d.Arguments.ForName(name)
	if arg == nil {
		return false, validationErrorf("plan: @%s missing argument %q", d.Name, name)
	}
	v, err := b.coerceValue(arg.Value)
	if err != nil {
		return false, err
	}
	if v.Kind() == value.KindScalar && v.ScalarKind() == value.ScalarBool {
		return v.Payload().(bool), nil
	}
	return false, validationErrorf("plan: @%s(%s) is not a boolean", d.Name, name)
}

// field plans one ast.Field. parentType is the schema type the field is
// selected against; targets (if any) is inherited narrowing from an
// enclosing fragment.
func (b *builder) field(node *ast.Field, parentType *schema.Type, targets []string) (*selection.Field, error) {
	if parentType == nil {
		return nil, validationErrorf("plan: cannot select field %q, parent type is unknown", node.Name)
	}

	name := node.Alias
	if name == "" {
		name = node.Name
	}

	if node.Name == "__typename" {
		typeName := parentType.Name
		return &selection.Field{
			Name:         node.Name,
			OutputName:   name,
			Targets:      targets,
			ResolverKind: selection.ResolverExtractor,
			Extractor: func(parent *value.Object) value.Value {
				if v, ok := parent.Get("__typename"); ok {
					return v
				}
				return value.String(typeName)
			},
		}, nil
	}

	if parentType.Name == b.extended.QueryType && (node.Name == "__schema" || node.Name == "__type") {
		return b.introspectionField(node, targets)
	}

	def := findFieldDef(parentType, node.Name)
	if def == nil {
		return nil, validationErrorf("plan: unknown field %s.%s", parentType.Name, node.Name)
	}

	args, err := b.coerceArguments(node.Arguments, def.Arguments)
	if err != nil {
		return nil, err
	}

	childType := b.extended.Types[schema.GetNamedType(def.Type)]
	var children []*selection.Field
	if len(node.SelectionSet) > 0 && childType != nil {
		children, err = b.selectionSet(node.SelectionSet, childType)
		if err != nil {
			return nil, err
		}
	}

	f := &selection.Field{
		Name:       node.Name,
		OutputName: name,
		Arguments:  args,
		Fields:     children,
		Targets:    targets,
	}
	if def.Extend != nil {
		f.ResolverKind = selection.ResolverFetcher
		f.Fetcher = def.Extend
		f.Eliminate = !schema.IsList(def.Type) && def.Extend.FilterBatchResults != nil
	} else {
		f.ResolverKind = selection.ResolverExtractor
		f.Extractor = func(parent *value.Object) value.Value { return parent.GetOrNull(node.Name) }
	}
	return f, nil
}

func findFieldDef(t *schema.Type, name string) *schema.Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// introspectionField precomputes the entire __schema/__type subtree, since
// schema metadata never changes within one execution — the resolver never
// needs to dispatch it through the fetch data source (spec §4.7 bypass).
func (b *builder) introspectionField(node *ast.Field, targets []string) (*selection.Field, error) {
	name := node.Alias
	if name == "" {
		name = node.Name
	}

	var root any
	if node.Name == "__schema" {
		root = introspection.RootSchema(b.original)
	} else {
		args, err := b.literalArgs(node.Arguments)
		if err != nil {
			return nil, err
		}
		typeName, _ := args["name"].(string)
		root = introspection.RootType(b.original, typeName)
	}

	val := b.evalIntrospection(root, node.SelectionSet)
	return &selection.Field{
		Name:         node.Name,
		OutputName:   name,
		Targets:      targets,
		ResolverKind: selection.ResolverExtractor,
		Extractor:    func(*value.Object) value.Value { return val },
	}, nil
}

func (b *builder) evalIntrospection(source any, set language.SelectionSet) value.Value {
	if source == nil {
		return value.Null()
	}
	if len(set) == 0 {
		return value.FromGo(source)
	}
	obj := value.NewObject()
	for _, sel := range set {
		f, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		name := f.Alias
		if name == "" {
			name = f.Name
		}
		if f.Name == "__typename" {
			obj.Set(name, value.String(introspectionTypeName(source)))
			continue
		}
		args, _ := b.literalArgs(f.Arguments)
		child, ok := introspection.Resolve(b.original, source, f.Name, args)
		if !ok {
			obj.Set(name, value.Null())
			continue
		}
		obj.Set(name, b.evalIntrospectionValue(child, f.SelectionSet))
	}
	return value.FromObject(obj)
}

func (b *builder) evalIntrospectionValue(v any, set language.SelectionSet) value.Value {
	switch vv := v.(type) {
	case nil:
		return value.Null()
	case []*schema.Type:
		items := make([]value.Value, len(vv))
		for i, t := range vv {
			items[i] = b.evalIntrospection(t, set)
		}
		return value.ListOf(items)
	case []*schema.Field:
		items := make([]value.Value, len(vv))
		for i, f := range vv {
			items[i] = b.evalIntrospection(f, set)
		}
		return value.ListOf(items)
	case []*schema.InputValue:
		items := make([]value.Value, len(vv))
		for i, iv := range vv {
			items[i] = b.evalIntrospection(iv, set)
		}
		return value.ListOf(items)
	case []*schema.EnumValue:
		items := make([]value.Value, len(vv))
		for i, ev := range vv {
			items[i] = b.evalIntrospection(ev, set)
		}
		return value.ListOf(items)
	case []*schema.Directive:
		items := make([]value.Value, len(vv))
		for i, d := range vv {
			items[i] = b.evalIntrospection(d, set)
		}
		return value.ListOf(items)
	case []string:
		items := make([]value.Value, len(vv))
		for i, s := range vv {
			items[i] = value.Enum(s)
		}
		return value.ListOf(items)
	case *schema.Schema, *schema.Type, *schema.TypeRef, *schema.Field, *schema.InputValue, *schema.EnumValue, *schema.Directive:
		return b.evalIntrospection(vv, set)
	case *string:
		if vv == nil {
			return value.Null()
		}
		return value.String(*vv)
	case string:
		return value.String(vv)
	case bool:
		return value.Bool(vv)
	default:
		return value.FromGo(vv)
	}
}

func introspectionTypeName(source any) string {
	switch source.(type) {
	case *schema.Schema:
		return "__Schema"
	case *schema.Type:
		return "__Type"
	case *schema.TypeRef:
		return "__Type"
	case *schema.Field:
		return "__Field"
	case *schema.InputValue:
		return "__InputValue"
	case *schema.EnumValue:
		return "__EnumValue"
	case *schema.Directive:
		return "__Directive"
	default:
		return ""
	}
}

func (b *builder) literalArgs(args language.ArgumentList) (map[string]any, error) {
	out := map[string]any{}
	for _, a := range args {
		v, err := b.coerceValue(a.Value)
		if err != nil {
			return nil, err
		}
		out[a.Name] = value.ToGo(v)
	}
	return out, nil
}

func (b *builder) coerceArguments(args language.ArgumentList, defs []*schema.InputValue) (map[string]value.Value, error) {
	out := map[string]value.Value{}
	for _, d := range defs {
		if provided := args.ForName(d.Name); provided != nil {
			v, err := b.coerceValue(provided.Value)
			if err != nil {
				return nil, err
			}
			out[d.Name] = v
		} else if d.DefaultValue != nil {
			out[d.Name] = value.FromGo(d.DefaultValue)
		}
	}
	return out, nil
}

func (b *builder) coerceValue(v *language.Value) (value.Value, error) {
	if v == nil {
		return value.Null(), nil
	}
	switch v.Kind {
	case language.Variable:
		raw, ok := b.variables[v.Raw]
		if !ok {
			return value.Null(), nil
		}
		return value.FromGo(raw), nil
	case language.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return value.Null(), gqlerr.NewValidationError(err)
		}
		return value.Int(n), nil
	case language.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return value.Null(), gqlerr.NewValidationError(err)
		}
		return value.Float(f), nil
	case language.StringValue, language.BlockValue:
		return value.String(v.Raw), nil
	case language.BooleanValue:
		return value.Bool(v.Raw == "true"), nil
	case language.NullValue:
		return value.Null(), nil
	case language.EnumValue:
		return value.Enum(v.Raw), nil
	case language.ListValue:
		items := make([]value.Value, 0, len(v.Children))
		for _, c := range v.Children {
			iv, err := b.coerceValue(c.Value)
			if err != nil {
				return value.Null(), err
			}
			items = append(items, iv)
		}
		return value.ListOf(items), nil
	case language.ObjectValue:
		obj := value.NewObject()
		for _, c := range v.Children {
			fv, err := b.coerceValue(c.Value)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(c.Name, fv)
		}
		return value.FromObject(obj), nil
	default:
		return value.Null(), nil
	}
}
