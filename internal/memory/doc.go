// Package memory keeps the indexer inside its container memory budget.
//
// Image decoding, libvips and the helper processes all allocate outside
// the Go heap's view, so GOMEMLIMIT has to be set explicitly. [ConfigureLimit]
// derives it from MEMORY_LIMIT (for example the Kubernetes Downward API
// limits.memory value) and MEMORY_RATIO:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// An explicit GOMEMLIMIT always wins.
//
// [Monitor] samples the heap against that limit. Above the critical mark it
// reports paused and [Monitor.Wait] blocks until usage falls back under the
// high-water mark; the orchestrator calls Wait between extraction windows.
package memory
