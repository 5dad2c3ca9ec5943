package schema

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/fedgraph/gateway/internal/language"
)

// BuildFromSDL parses a subgraph's SDL text into an executable Schema. Each
// subgraph.Executor exposes its own Schema this way (spec §3); the Schema
// Composer then merges them (internal/compose).
func BuildFromSDL(sdl string) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	return buildFromDocument(doc), nil
}

func buildFromDocument(doc *ast.SchemaDocument) *Schema {
	s := &Schema{
		QueryType:  "Query",
		Types:      map[string]*Type{},
		Directives: map[string]*Directive{},
	}
	for _, def := range doc.Schema {
		for _, op := range def.OperationTypes {
			switch op.Operation {
			case ast.Query:
				s.QueryType = op.Type
			case ast.Mutation:
				s.MutationType = op.Type
			case ast.Subscription:
				s.SubscriptionType = op.Type
			}
		}
	}

	s.Types[stringType.Name] = stringType
	s.Types[intType.Name] = intType
	s.Types[floatType.Name] = floatType
	s.Types[booleanType.Name] = booleanType
	s.Types[idType.Name] = idType
	s.Directives[includeDirective.Name] = includeDirective
	s.Directives[skipDirective.Name] = skipDirective

	for _, def := range doc.Definitions {
		if def.BuiltIn {
			continue
		}
		switch def.Kind {
		case ast.Object:
			s.Types[def.Name] = buildObjectLike(def, TypeKindObject)
			if def.Name == "Query" && s.QueryType == "" {
				s.QueryType = "Query"
			}
		case ast.Interface:
			s.Types[def.Name] = buildObjectLike(def, TypeKindInterface)
		case ast.Union:
			s.Types[def.Name] = buildUnion(def)
		case ast.Scalar:
			s.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindScalar, Description: def.Description}
		case ast.Enum:
			s.Types[def.Name] = buildEnum(def)
		case ast.InputObject:
			s.Types[def.Name] = buildInput(def)
		}
	}

	for _, def := range doc.Directives {
		d := buildDirective(def)
		s.Directives[d.Name] = d
	}

	return s
}

func buildObjectLike(def *ast.Definition, kind TypeKind) *Type {
	t := &Type{
		Name:        def.Name,
		Kind:        kind,
		Description: def.Description,
	}
	t.Interfaces = append(t.Interfaces, def.Interfaces...)
	sort.Strings(t.Interfaces)

	fields := make([]*ast.FieldDefinition, len(def.Fields))
	copy(fields, def.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	for _, f := range fields {
		if isInternalField(f.Name) {
			continue
		}
		t.Fields = append(t.Fields, buildField(f))
	}
	return t
}

// isInternalField skips introspection meta-fields, which internal/introspection
// adds back on its own extended copy of the schema.
func isInternalField(name string) bool {
	return name == "__schema" || name == "__type" || name == "__typename"
}

func buildField(def *ast.FieldDefinition) *Field {
	reason, deprecated := deprecation(def.Directives)
	f := &Field{
		Name:              def.Name,
		Description:       def.Description,
		Type:              buildTypeRef(def.Type),
		IsDeprecated:      deprecated,
		DeprecationReason: reason,
		Async:             true,
	}
	args := make([]*ast.ArgumentDefinition, len(def.Arguments))
	copy(args, def.Arguments)
	sort.Slice(args, func(i, j int) bool { return args[i].Name < args[j].Name })
	for _, a := range args {
		f.Arguments = append(f.Arguments, buildArgumentDefinition(a))
	}
	return f
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &TypeRef{Kind: TypeRefKindNonNull, OfType: buildTypeRef(&inner)}
	}
	if t.Elem != nil {
		return &TypeRef{Kind: TypeRefKindList, OfType: buildTypeRef(t.Elem)}
	}
	return &TypeRef{Kind: TypeRefKindNamed, Named: t.NamedType}
}

func buildArgumentDefinition(a *ast.ArgumentDefinition) *InputValue {
	reason, deprecated := deprecation(a.Directives)
	return &InputValue{
		Name:              a.Name,
		Description:       a.Description,
		Type:              buildTypeRef(a.Type),
		DefaultValue:      defaultValueLiteral(a.DefaultValue),
		IsDeprecated:      deprecated,
		DeprecationReason: reason,
	}
}

func buildEnum(def *ast.Definition) *Type {
	t := &Type{Name: def.Name, Kind: TypeKindEnum, Description: def.Description}
	values := make([]*ast.EnumValueDefinition, len(def.EnumValues))
	copy(values, def.EnumValues)
	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })
	for _, v := range values {
		reason, deprecated := deprecation(v.Directives)
		t.EnumValues = append(t.EnumValues, &EnumValue{
			Name:              v.Name,
			Description:       v.Description,
			IsDeprecated:      deprecated,
			DeprecationReason: reason,
		})
	}
	return t
}

func buildInput(def *ast.Definition) *Type {
	t := &Type{Name: def.Name, Kind: TypeKindInputObject, Description: def.Description}
	for _, d := range def.Directives {
		if d.Name == "oneOf" {
			t.OneOf = true
		}
	}
	fields := make([]*ast.FieldDefinition, len(def.Fields))
	copy(fields, def.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	for _, f := range fields {
		reason, deprecated := deprecation(f.Directives)
		t.InputFields = append(t.InputFields, &InputValue{
			Name:              f.Name,
			Description:       f.Description,
			Type:              buildTypeRef(f.Type),
			DefaultValue:      defaultValueLiteral(f.DefaultValue),
			IsDeprecated:      deprecated,
			DeprecationReason: reason,
		})
	}
	return t
}

func buildUnion(def *ast.Definition) *Type {
	t := &Type{Name: def.Name, Kind: TypeKindUnion, Description: def.Description}
	types := append([]string(nil), def.Types...)
	sort.Strings(types)
	t.PossibleTypes = types
	return t
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	locations := make([]string, 0, len(def.Locations))
	for _, l := range def.Locations {
		locations = append(locations, string(l))
	}
	sort.Strings(locations)

	args := make([]*ast.ArgumentDefinition, len(def.Arguments))
	copy(args, def.Arguments)
	sort.Slice(args, func(i, j int) bool { return args[i].Name < args[j].Name })
	var arguments []*InputValue
	for _, a := range args {
		arguments = append(arguments, buildArgumentDefinition(a))
	}

	return &Directive{
		Name:         def.Name,
		Description:  def.Description,
		Locations:    locations,
		Arguments:    arguments,
		IsRepeatable: def.IsRepeatable,
	}
}

// deprecation reads the standard @deprecated directive off a directive list.
func deprecation(dirs ast.DirectiveList) (reason string, deprecated bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	reason = "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return reason, true
}

func defaultValueLiteral(v *ast.Value) any {
	if v == nil {
		return nil
	}
	return v.Raw
}
