// Package inplace implements the Burns-Long-Stockmeyer in-place delta
// transformation (spec 4.H): it builds the CRWI (Copy-Read/Write-
// Intersection) digraph over a standard delta's copy commands,
// schedules them with Kahn's algorithm, and breaks any cycles by
// materialising a victim copy as a literal add.
package inplace

import (
	"container/heap"
	"sort"

	"github.com/deltacomp/deltac/pkg/command"
)

// Policy selects how a cycle's victim copy is chosen.
type Policy int

const (
	// PolicyLocalMin picks the cycle vertex with the smallest
	// (copy length, index).
	PolicyLocalMin Policy = iota
	// PolicyConstant picks the lowest-index still-present vertex in
	// the cycle, ignoring length.
	PolicyConstant
)

// vertex is a copy command placed at Dst, tracked by its original
// placement Index for deterministic tie-breaks.
type vertex struct {
	copy  command.Copy
	dst   int
	index int
}

// Convert computes each command's destination by prefix sum, builds
// the CRWI digraph over the copies, and schedules them so that the
// resulting placed command list can be applied in place against a
// single buffer preloaded with R. Adds are retained unchanged.
func Convert(cmds []command.Command, r []byte, policy Policy) []command.PlacedCommand {
	placed := command.Place(cmds)

	var verts []vertex
	var adds []command.PlacedCommand
	for _, pc := range placed {
		switch c := pc.Cmd.(type) {
		case command.Copy:
			verts = append(verts, vertex{copy: c, dst: pc.Dst, index: len(verts)})
		default:
			adds = append(adds, pc)
		}
	}

	n := len(verts)
	outEdges, inDegree := buildCRWIEdges(verts)
	topoOrder, materialized := schedule(verts, outEdges, inDegree, r, policy)

	out := make([]command.PlacedCommand, 0, n+len(adds)+len(materialized))
	for _, i := range topoOrder {
		out = append(out, command.PlacedCommand{
			Cmd: verts[i].copy,
			Dst: verts[i].dst,
		})
	}
	out = append(out, adds...)
	out = append(out, materialized...)
	return out
}

// buildCRWIEdges sorts copies by write-interval start and, for each
// copy's read interval, binary-searches the writes overlapping it,
// emitting edge i->j (i must execute before j) for every overlap with
// j != i (spec 4.H, "Build CRWI edges").
func buildCRWIEdges(verts []vertex) (outEdges [][]int, inDegree []int) {
	n := len(verts)
	outEdges = make([][]int, n)
	inDegree = make([]int, n)
	if n == 0 {
		return outEdges, inDegree
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return verts[order[a]].dst < verts[order[b]].dst })

	writeStarts := make([]int, n)
	for k, idx := range order {
		writeStarts[k] = verts[idx].dst
	}

	for i, v := range verts {
		srcStart := v.copy.Offset
		srcEnd := srcStart + v.copy.Length

		lo := sort.Search(n, func(k int) bool { return writeStarts[k] >= srcStart })
		hi := sort.Search(n, func(k int) bool { return writeStarts[k] >= srcEnd })

		start := lo
		if lo > 0 {
			start = lo - 1
		}
		if hi < start {
			hi = start + 1
		}

		for k := start; k < hi && k < n; k++ {
			j := order[k]
			if j == i {
				continue
			}
			w := verts[j]
			wStart, wEnd := w.dst, w.dst+w.copy.Length
			if wEnd > srcStart && wStart < srcEnd {
				outEdges[i] = append(outEdges[i], j)
				inDegree[j]++
			}
		}
	}
	return outEdges, inDegree
}

// heapItem is a Kahn-ready vertex keyed by (copy length, index) for a
// deterministic tie-break.
type heapItem struct {
	length int
	index  int
}

type minHeap []heapItem

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].length != h[j].length {
		return h[i].length < h[j].length
	}
	return h[i].index < h[j].index
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// schedule drains ready (in-degree 0) vertices via Kahn's algorithm
// using a min-heap; when the heap empties with vertices remaining, it
// breaks the residual cycle(s) by materialising a victim copy as an
// Add, per spec 4.H's cycle-breaking procedure. Termination is bounded
// by a counter: every iteration either drains a vertex or removes a
// victim, so progress is guaranteed within n+1 rounds.
func schedule(verts []vertex, outEdges [][]int, inDegree []int, r []byte, policy Policy) (topoOrder []int, materialized []command.PlacedCommand) {
	n := len(verts)
	done := make([]bool, n)

	h := &minHeap{}
	heap.Init(h)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			heap.Push(h, heapItem{length: verts[i].copy.Length, index: i})
		}
	}

	processed := 0
	drain := func() {
		for h.Len() > 0 {
			item := heap.Pop(h).(heapItem)
			i := item.index
			if done[i] {
				continue
			}
			done[i] = true
			processed++
			topoOrder = append(topoOrder, i)
			for _, j := range outEdges[i] {
				if done[j] {
					continue
				}
				inDegree[j]--
				if inDegree[j] == 0 {
					heap.Push(h, heapItem{length: verts[j].copy.Length, index: j})
				}
			}
		}
	}
	drain()

	for iterations := 0; processed < n; iterations++ {
		if iterations > n+1 {
			panic("inplace: scheduler failed to terminate")
		}

		remaining := remainingIndices(done)
		sccs := tarjanSCC(remaining, outEdges, done)

		victim := -1
		for _, scc := range sccs {
			if len(scc) < 2 {
				continue
			}
			cycle := findCycle(scc, outEdges, done)
			if cycle == nil {
				continue
			}
			victim = selectVictimPolicy(cycle, verts, policy)
			break
		}
		if victim < 0 {
			// No SCC yielded a cycle though vertices remain; nothing
			// more can be scheduled or broken.
			break
		}

		materialized = append(materialized, materializeVictim(victim, verts, r))
		done[victim] = true
		processed++
		for _, j := range outEdges[victim] {
			if done[j] {
				continue
			}
			inDegree[j]--
			if inDegree[j] == 0 {
				heap.Push(h, heapItem{length: verts[j].copy.Length, index: j})
			}
		}
		drain()
	}

	return topoOrder, materialized
}

func remainingIndices(done []bool) []int {
	var out []int
	for i, d := range done {
		if !d {
			out = append(out, i)
		}
	}
	return out
}

// tarjanSCC decomposes the subgraph induced by remaining vertices
// (edges into already-done vertices are ignored) into strongly
// connected components using an iterative Tarjan, returning them in
// source-first order of the condensation DAG.
func tarjanSCC(remaining []int, outEdges [][]int, done []bool) [][]int {
	n := len(done)
	const unvisited = -1
	idx := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range idx {
		idx[i] = unvisited
	}
	var stack []int
	var sccs [][]int
	counter := 0

	type frame struct {
		v, i int
	}

	for _, start := range remaining {
		if idx[start] != unvisited {
			continue
		}

		var work []frame
		work = append(work, frame{v: start, i: 0})

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.v

			if top.i == 0 {
				idx[v] = counter
				low[v] = counter
				counter++
				stack = append(stack, v)
				onStack[v] = true
			}

			descended := false
			for top.i < len(outEdges[v]) {
				w := outEdges[v][top.i]
				top.i++
				if done[w] {
					continue
				}
				if idx[w] == unvisited {
					work = append(work, frame{v: w, i: 0})
					descended = true
					break
				}
				if onStack[w] && low[w] < low[v] {
					low[v] = low[w]
				}
			}
			if descended {
				continue
			}

			if low[v] == idx[v] {
				var scc []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if low[v] < low[parent.v] {
					low[parent.v] = low[v]
				}
			}
		}
	}

	for i, j := 0, len(sccs)-1; i < j; i, j = i+1, j-1 {
		sccs[i], sccs[j] = sccs[j], sccs[i]
	}
	return sccs
}

// findCycle runs an iterative DFS with three-colour marking restricted
// to scc's vertices, returning the first cycle found as a path of
// vertex indices, or nil if none (only possible for a trivial SCC).
func findCycle(scc []int, outEdges [][]int, done []bool) []int {
	inSCC := make(map[int]bool, len(scc))
	for _, v := range scc {
		inSCC[v] = true
	}

	const white, gray, black = 0, 1, 2
	color := make(map[int]int, len(scc))

	type frame struct {
		v, i int
	}

	for _, start := range scc {
		if color[start] != white {
			continue
		}

		var stack []frame
		stack = append(stack, frame{v: start, i: 0})
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			v := top.v

			advanced := false
			for top.i < len(outEdges[v]) {
				w := outEdges[v][top.i]
				top.i++
				if done[w] || !inSCC[w] {
					continue
				}
				if color[w] == gray {
					cyc := make([]int, 0, len(stack))
					started := false
					for _, f := range stack {
						if f.v == w {
							started = true
						}
						if started {
							cyc = append(cyc, f.v)
						}
					}
					return cyc
				}
				if color[w] == white {
					color[w] = gray
					stack = append(stack, frame{v: w, i: 0})
					advanced = true
					break
				}
			}
			if advanced {
				continue
			}
			color[v] = black
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// selectVictimPolicy applies the configured cycle-breaking policy.
func selectVictimPolicy(cycle []int, verts []vertex, policy Policy) int {
	best := cycle[0]
	for _, v := range cycle[1:] {
		switch policy {
		case PolicyConstant:
			if verts[v].index < verts[best].index {
				best = v
			}
		default: // PolicyLocalMin
			if verts[v].copy.Length < verts[best].copy.Length ||
				(verts[v].copy.Length == verts[best].copy.Length && verts[v].index < verts[best].index) {
				best = v
			}
		}
	}
	return best
}

// materializeVictim converts a copy vertex into a literal Add whose
// bytes are read from R before any output buffer mutation, per spec
// 4.H's cycle-breaking procedure.
func materializeVictim(v int, verts []vertex, r []byte) command.PlacedCommand {
	c := verts[v].copy
	b := make([]byte, c.Length)
	copy(b, r[c.Offset:c.Offset+c.Length])
	return command.PlacedCommand{Cmd: command.Add{Bytes: b}, Dst: verts[v].dst}
}
