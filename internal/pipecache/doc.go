// Package pipecache provides a generic get-or-create cache with LRU eviction,
// used for compiled pipeline state objects.
//
// Backends key pipelines by [rhi.PipelineStateObject.Key] and release the
// underlying GPU objects from the eviction callback:
//
//	pipelines := pipecache.New[uint64, *pipeline](128, func(_ uint64, p *pipeline) {
//	    p.destroy()
//	})
//	p, err := pipelines.GetOrCreate(pso.Key(), func() (*pipeline, error) {
//	    return compile(pso)
//	})
//
// # Thread Safety
//
// Cache is safe for concurrent use. The eviction callback runs with the cache
// lock held and must not call back into the cache.
//
// [rhi.PipelineStateObject.Key]: github.com/gogpu/rendergraph/rhi.PipelineStateObject.Key
package pipecache
