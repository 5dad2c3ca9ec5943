// Package resolve implements the Resolver Engine (spec §4.7): it walks a
// planned selection tree breadth-first, level by level, so every Fetcher
// field at the same depth (across every parent object currently being
// resolved, including siblings produced by a preceding list fetch) is
// enqueued on the fetch data source before one Dispatch call — this is what
// lets structurally identical or batch-eligible sibling fetches coalesce
// into a single subgraph call (spec §4.6).
//
// Mutation root fields are resolved one at a time, each run to completion
// (including its whole subtree) before the next begins; query and
// subscription root fields share one breadth-first run and may batch freely
// against each other (spec §4.7 "mutation siblings execute in order").
package resolve

import (
	"context"

	"github.com/fedgraph/gateway/internal/fetch"
	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/plan"
	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// Result is the outcome of one operation run. Per spec §4.7 "Failure
// semantics" and §7 "Propagation", a failure at any node aborts the whole
// response: Data is nil and Errors holds exactly the one error that
// triggered the abort. There is no selection-local nullification in the
// core — on success Data is the fully resolved object and Errors is nil.
type Result struct {
	Data   *value.Object
	Errors []*gqlerr.ExecutionError
}

// Execute plans-to-values one Operation against ds.
func Execute(ctx context.Context, ds *fetch.DataSource, op *plan.Operation) *Result {
	root := value.NewObject()
	e := &engine{ds: ds, rootOpType: op.Type}

	if op.Type == subgraph.Mutation {
		for _, f := range op.Fields {
			if e.aborted {
				break
			}
			e.run(ctx, []job{{field: f, target: root, path: []any{f.OutputNameOrName()}}})
		}
	} else {
		jobs := make([]job, 0, len(op.Fields))
		for _, f := range op.Fields {
			jobs = append(jobs, job{field: f, target: root, path: []any{f.OutputNameOrName()}})
		}
		e.run(ctx, jobs)
	}

	if e.aborted {
		return &Result{Errors: e.errors}
	}
	return &Result{Data: root}
}

// job resolves one Field against parent (nil at the root) and stores the
// result into target under the field's output name.
type job struct {
	parent *value.Object
	field  *selection.Field
	target *value.Object
	path   []any
}

type engine struct {
	ds         *fetch.DataSource
	rootOpType subgraph.OperationType
	errors     []*gqlerr.ExecutionError
	aborted    bool
}

// run drains frontier breadth-first: every pass resolves all Extractor jobs
// synchronously (pure, no I/O), enqueues all Fetcher jobs, dispatches them
// together, then expands every result into the next pass's frontier. The
// first ExecutionError aborts the whole run (spec §4.7/§7): e.errors holds
// exactly that one error and no further jobs, in this pass or later ones,
// are resolved.
func (e *engine) run(ctx context.Context, frontier []job) {
	for len(frontier) > 0 {
		var extractorJobs, fetcherJobs []job
		for _, j := range frontier {
			if j.field.ResolverKind == selection.ResolverFetcher {
				fetcherJobs = append(fetcherJobs, j)
			} else {
				extractorJobs = append(extractorJobs, j)
			}
		}

		var next []job

		for _, j := range extractorJobs {
			v := j.field.Extractor(j.parent)
			result := e.expand(v, j.field, j.path, &next)
			j.target.Set(j.field.OutputNameOrName(), result)
		}

		if len(fetcherJobs) > 0 {
			type scheduled struct {
				job     job
				pending *fetch.Pending
			}
			scheduledJobs := make([]scheduled, 0, len(fetcherJobs))
			for _, j := range fetcherJobs {
				req := e.buildRequest(j)
				scheduledJobs = append(scheduledJobs, scheduled{job: j, pending: e.ds.Enqueue(req)})
			}

			_ = e.ds.Dispatch(ctx)

			for _, s := range scheduledJobs {
				j := s.job
				v, err := s.pending.Result()
				if err != nil {
					e.errors = []*gqlerr.ExecutionError{gqlerr.NewExecutionError("resolve: %v", err).WithPath(j.path)}
					e.aborted = true
					return
				}
				v = e.filterBatchResult(j.field, j.parent, v)
				result := e.expand(v, j.field, j.path, &next)
				j.target.Set(j.field.OutputNameOrName(), result)
			}
		}

		frontier = next
	}
}

// buildRequest turns one Fetcher job into a fetch.Request: the field's own
// (already-coerced) arguments, plus any values the Extend binding derives
// from the parent object (entity-style lookups have no literal arguments of
// their own and rely entirely on ArgumentMappings).
func (e *engine) buildRequest(j job) fetch.Request {
	field := j.field
	ext := field.Fetcher

	args := make(map[string]value.Value, len(field.Arguments))
	for k, v := range field.Arguments {
		args[k] = v
	}
	if j.parent != nil {
		for _, am := range ext.ArgumentMappings {
			parentVal := j.parent.GetOrNull(am.ParentKey)
			if name, val, ok := am.Fn(parentVal); ok {
				args[name] = val
			}
		}
	}

	lowered := make([]*selection.Field, 0, len(field.Fields)+len(ext.AdditionalFields))
	for _, cf := range field.Fields {
		if cf.ResolverKind == selection.ResolverFetcher {
			// A child bound to its own Fetcher is resolved on a later pass;
			// only the parent keys its ArgumentMappings read are fetched here.
			for _, am := range cf.Fetcher.ArgumentMappings {
				lowered = append(lowered, &selection.Field{Name: am.ParentKey})
			}
			continue
		}
		lowered = append(lowered, selection.Lower(cf, cf.Targets))
	}
	lowered = append(lowered, ext.AdditionalFields...)

	opType := subgraph.Query
	if j.parent == nil {
		opType = e.rootOpType
	}

	return fetch.Request{
		Subgraph:      ext.SourceGraph,
		SourceField:   ext.SourceFieldName,
		OperationType: opType,
		Fields:        lowered,
		Arguments:     args,
		BatchEnabled:  ext.FilterBatchResults != nil && ext.BatchArgName != "",
		BatchArgName:  ext.BatchArgName,
	}
}

// filterBatchResult narrows a batch-style Fetcher's raw list result back
// down to the entries belonging to parent, then — if the field's declared
// type is singular (Eliminate) — collapses the match down to one object or
// Null (spec §4.7 entity-fetch flattening).
func (e *engine) filterBatchResult(field *selection.Field, parent *value.Object, v value.Value) value.Value {
	if field.Fetcher.FilterBatchResults == nil {
		return v
	}
	var matches []value.Value
	for _, item := range v.Items() {
		obj, ok := item.AsObject()
		if !ok {
			continue
		}
		if field.Fetcher.FilterBatchResults(parent, obj) {
			matches = append(matches, item)
		}
	}
	if field.Eliminate {
		if len(matches) == 0 {
			return value.Null()
		}
		return matches[0]
	}
	return value.ListOf(matches)
}

// expand walks a resolved value against field's child selections, spawning
// one job per child per object encountered (recursing through list
// nesting), and returns the (possibly still-empty, to-be-filled) response
// shape for this field. Children are filled in by a later pass since the
// Object they're written into is shared by pointer.
func (e *engine) expand(v value.Value, field *selection.Field, path []any, next *[]job) value.Value {
	if len(field.Fields) == 0 {
		return v
	}
	switch v.Kind() {
	case value.KindObject:
		obj, _ := v.AsObject()
		out := value.NewObject()
		for _, cf := range field.Fields {
			*next = append(*next, job{
				parent: obj,
				field:  cf,
				target: out,
				path:   appendPath(path, cf.OutputNameOrName()),
			})
		}
		return value.FromObject(out)
	case value.KindList:
		items := v.Items()
		results := make([]value.Value, len(items))
		for i, item := range items {
			results[i] = e.expand(item, field, appendPath(path, i), next)
		}
		return value.ListOf(results)
	default:
		return value.Null()
	}
}

func appendPath(path []any, elem any) []any {
	out := make([]any, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
