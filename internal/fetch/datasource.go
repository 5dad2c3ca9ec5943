package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fedgraph/gateway/internal/eventbus"
	"github.com/fedgraph/gateway/internal/events"
	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// pending is one in-flight (or already-fulfilled) fetch, shared by every
// Enqueue call whose Request.Key matched.
type pending struct {
	req    Request
	result value.Value
	err    error
}

// Pending is the handle returned by Enqueue. Its Result is only meaningful
// after the Dispatch call that covers it returns.
type Pending struct{ p *pending }

// Result returns the value fetched for this request, or the error that
// aborted it.
func (h *Pending) Result() (value.Value, error) { return h.p.result, h.p.err }

// DataSource is the per-request fetch data source described in spec §4.6:
// it deduplicates structurally-equal FetchRequests for the lifetime of one
// GraphQL execution and dispatches queued requests in (subgraph,
// operationType) groups, one synthesized document per group.
type DataSource struct {
	executors map[string]subgraph.Executor

	mu    sync.Mutex
	cache map[string]*pending
	queue []*pending
}

// New builds a DataSource over the given subgraphs, keyed by Executor.Name.
func New(executors map[string]subgraph.Executor) *DataSource {
	return &DataSource{executors: executors, cache: make(map[string]*pending)}
}

// Enqueue registers req for the next Dispatch, or returns the existing
// handle if an equal request (spec §3 structural equality) was already
// enqueued anywhere in this execution.
func (ds *DataSource) Enqueue(req Request) *Pending {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	key := req.Key()
	if p, ok := ds.cache[key]; ok {
		return &Pending{p: p}
	}
	p := &pending{req: req}
	ds.cache[key] = p
	ds.queue = append(ds.queue, p)
	return &Pending{p: p}
}

// Dispatch sends every request queued since the last Dispatch, grouped by
// (subgraph, operationType), one synthesized document per group, run
// concurrently across groups (spec §4.6: "dispatched as a single
// synthesized GraphQL document per group at the next scheduling point").
func (ds *DataSource) Dispatch(ctx context.Context) error {
	ds.mu.Lock()
	batch := ds.queue
	ds.queue = nil
	ds.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	type groupKey struct {
		subgraph string
		opType   subgraph.OperationType
	}
	groups := make(map[groupKey][]*pending)
	var groupOrder []groupKey
	for _, p := range batch {
		gk := groupKey{p.req.Subgraph, p.req.OperationType}
		if _, seen := groups[gk]; !seen {
			groupOrder = append(groupOrder, gk)
		}
		groups[gk] = append(groups[gk], p)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(groupOrder))
	for i, gk := range groupOrder {
		i, gk := i, gk
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ds.dispatchGroup(ctx, gk.subgraph, gk.opType, groups[gk])
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// coalesceBucket is a run of pendings that can share one synthesized call.
type coalesceBucket struct {
	key      string
	members  []*pending
	batchArg string
}

func (ds *DataSource) dispatchGroup(ctx context.Context, subgraphName string, opType subgraph.OperationType, pendings []*pending) error {
	exec, ok := ds.executors[subgraphName]
	if !ok {
		err := gqlerr.NewExecutionError("fetch: no subgraph registered with name %q", subgraphName)
		for _, p := range pendings {
			p.err = err
		}
		return err
	}

	buckets := coalesceBuckets(pendings)

	calls := make([]call, 0, len(buckets))
	for i, bucket := range buckets {
		alias := fmt.Sprintf("f%d", i)
		first := bucket.members[0].req
		args := first.Arguments
		if len(bucket.members) > 1 {
			values := make([]value.Value, 0, len(bucket.members))
			for _, m := range bucket.members {
				values = append(values, m.req.Arguments[bucket.batchArg])
			}
			args = map[string]value.Value{bucket.batchArg: value.ListOf(values)}
		}
		calls = append(calls, call{
			alias:       alias,
			sourceField: first.SourceField,
			arguments:   args,
			fields:      first.Fields,
		})
	}

	doc := synthesizeDocument(opType, calls)

	eventbus.Publish(ctx, events.FetchStart{
		Subgraph:      subgraphName,
		OperationType: opType.String(),
		RequestCount:  len(pendings),
	})
	start := time.Now()
	data, err := exec.Run(ctx, doc, opType, nil)
	eventbus.Publish(ctx, events.FetchFinish{
		Subgraph:      subgraphName,
		OperationType: opType.String(),
		RequestCount:  len(pendings),
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		wrapped := gqlerr.NewExecutionError("fetch: subgraph %q: %v", subgraphName, err)
		for _, bucket := range buckets {
			for _, p := range bucket.members {
				p.err = wrapped
			}
		}
		return wrapped
	}

	obj, ok := data.AsObject()
	if !ok {
		wrapped := gqlerr.NewExecutionError("fetch: subgraph %q returned a non-object response", subgraphName)
		for _, bucket := range buckets {
			for _, p := range bucket.members {
				p.err = wrapped
			}
		}
		return wrapped
	}

	for i, bucket := range buckets {
		alias := fmt.Sprintf("f%d", i)
		result := obj.GetOrNull(alias)
		for _, p := range bucket.members {
			p.result = result
		}
	}
	return nil
}

// coalesceBuckets groups pendings eligible for batch coalescing (spec §4.6
// Entity batching): same subgraph call shape, BatchEnabled, a configured
// BatchArgName, and exactly one argument (the one being turned into a
// list). Every other pending gets its own singleton bucket.
func coalesceBuckets(pendings []*pending) []coalesceBucket {
	var buckets []coalesceBucket
	index := make(map[string]int)

	for _, p := range pendings {
		if p.req.BatchEnabled && p.req.BatchArgName != "" && len(p.req.Arguments) == 1 {
			if _, has := p.req.Arguments[p.req.BatchArgName]; has {
				k := coalesceKey(p.req)
				if idx, ok := index[k]; ok {
					buckets[idx].members = append(buckets[idx].members, p)
					continue
				}
				index[k] = len(buckets)
				buckets = append(buckets, coalesceBucket{key: k, members: []*pending{p}, batchArg: p.req.BatchArgName})
				continue
			}
		}
		buckets = append(buckets, coalesceBucket{members: []*pending{p}})
	}
	return buckets
}

// coalesceKey identifies requests that differ only in the single batched
// argument's value: subgraph, source field, and the lowered field shape
// must match exactly.
func coalesceKey(r Request) string {
	cp := r
	cp.Arguments = nil
	return cp.Key()
}
