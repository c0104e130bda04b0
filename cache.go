// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/gogpu/rendergraph/rhi"
)

// CacheStats contains texture cache statistics.
type CacheStats struct {
	// Textures is the number of live backend textures.
	Textures int

	// Bytes is the approximate memory held by live textures.
	Bytes uint64

	// Created counts backend allocations, recreations included.
	Created uint64

	// Recreated counts textures replaced because their descriptor or usage changed.
	Recreated uint64

	// Evicted counts textures destroyed after going undeclared.
	Evicted uint64

	// Hits counts frames that reused a cached texture as is.
	Hits uint64
}

// String returns a human-readable summary.
func (s CacheStats) String() string {
	return fmt.Sprintf("TextureCache[%d textures, %.1f MB, %d created, %d recreated, %d evicted, %d hits]",
		s.Textures, float64(s.Bytes)/(1024*1024), s.Created, s.Recreated, s.Evicted, s.Hits)
}

func (s *CacheStats) add(o CacheStats) {
	s.Textures += o.Textures
	s.Bytes += o.Bytes
	s.Created += o.Created
	s.Recreated += o.Recreated
	s.Evicted += o.Evicted
	s.Hits += o.Hits
}

// cacheEntry is one backend texture owned by a frame slot.
type cacheEntry struct {
	tex     rhi.Texture
	desc    rhi.TextureDescriptor
	lastUse uint64
}

// textureCache owns the backend textures of one frame slot, keyed by name.
// Slots never share textures, so a slot's textures can be rewritten while
// the GPU still reads the other slots.
type textureCache struct {
	entries map[string]*cacheEntry
	uses    uint64
	stats   CacheStats
}

func newTextureCache(int) *textureCache {
	return &textureCache{entries: make(map[string]*cacheEntry)}
}

// acquire returns a texture for desc, reusing the cached one when its
// descriptor is compatible and its usage covers desc.Usage. Otherwise the
// cached texture is destroyed and replaced. Usage only ever grows, so a
// name declared with varying accesses settles on one allocation.
func (c *textureCache) acquire(dev rhi.Device, desc rhi.TextureDescriptor, log *slog.Logger) (rhi.Texture, error) {
	e := c.entries[desc.Name]
	if e != nil && e.desc.Compatible(desc) && e.desc.Usage.Has(desc.Usage) {
		e.lastUse = c.uses
		c.stats.Hits++
		log.Debug("rendergraph: texture cache hit", "name", desc.Name)
		return e.tex, nil
	}

	if e != nil {
		if e.desc.Compatible(desc) {
			desc.Usage |= e.desc.Usage
			log.Debug("rendergraph: widening texture usage",
				"name", desc.Name, "old", e.desc.Usage, "new", desc.Usage)
		} else {
			log.Info("rendergraph: recreating texture",
				"name", desc.Name,
				"old", fmt.Sprintf("%dx%d %v", e.desc.Width, e.desc.Height, e.desc.Format),
				"new", fmt.Sprintf("%dx%d %v", desc.Width, desc.Height, desc.Format))
		}
		c.remove(dev, desc.Name, e)
		c.stats.Recreated++
	}

	tex, err := dev.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("rendergraph: create texture %q: %w", desc.Name, err)
	}
	c.entries[desc.Name] = &cacheEntry{tex: tex, desc: desc, lastUse: c.uses}
	c.stats.Created++
	c.stats.Textures++
	c.stats.Bytes += desc.SizeBytes()
	return tex, nil
}

// evict destroys entries that have not been acquired for evictAfter uses of
// this slot. Zero disables eviction.
func (c *textureCache) evict(dev rhi.Device, evictAfter int, log *slog.Logger) {
	if evictAfter <= 0 {
		return
	}
	for _, name := range c.names() {
		e := c.entries[name]
		if c.uses-e.lastUse >= uint64(evictAfter) {
			log.Debug("rendergraph: evicting texture", "name", name, "idle", c.uses-e.lastUse)
			c.remove(dev, name, e)
			c.stats.Evicted++
		}
	}
}

func (c *textureCache) remove(dev rhi.Device, name string, e *cacheEntry) {
	dev.DestroyTexture(e.tex)
	delete(c.entries, name)
	c.stats.Textures--
	c.stats.Bytes -= e.desc.SizeBytes()
}

// release destroys every texture in the slot.
func (c *textureCache) release(dev rhi.Device) {
	for _, name := range c.names() {
		c.remove(dev, name, c.entries[name])
	}
}

// names returns entry names in sorted order so destruction is deterministic.
func (c *textureCache) names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// frameTexture is a texture declared in the current frame.
type frameTexture struct {
	handle TextureHandle
	desc   rhi.TextureDescriptor
	tex    rhi.Texture
}

// frameTable maps names and handles to the textures declared in one frame.
// It is rebuilt every frame, which is what makes handles frame-scoped.
type frameTable struct {
	gen      uint32
	textures []*frameTexture
	byName   map[string]*frameTexture
}

func newFrameTable(gen uint32) *frameTable {
	return &frameTable{gen: gen, byName: make(map[string]*frameTexture)}
}

// create declares name for this frame. Declaring the same name again with a
// compatible descriptor returns the existing handle.
func (t *frameTable) create(name string, desc rhi.TextureDescriptor) (TextureHandle, error) {
	desc.Name = name
	desc = desc.Normalized()
	if err := desc.Validate(); err != nil {
		return InvalidHandle, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	if ft, ok := t.byName[name]; ok {
		if !ft.desc.Compatible(desc) {
			return InvalidHandle, ErrDescriptorMismatch
		}
		ft.desc.Usage |= desc.Usage
		return ft.handle, nil
	}
	if len(t.textures) > handleIndexMask {
		return InvalidHandle, fmt.Errorf("%w: more than %d textures in one frame", ErrInvalidDescriptor, handleIndexMask+1)
	}
	ft := &frameTexture{
		handle: makeHandle(t.gen, len(t.textures)),
		desc:   desc,
	}
	t.textures = append(t.textures, ft)
	t.byName[name] = ft
	return ft.handle, nil
}

// lookup resolves a handle issued by this table.
func (t *frameTable) lookup(h TextureHandle) (*frameTexture, bool) {
	if !h.IsValid() || h.generation() != t.gen {
		return nil, false
	}
	i := h.index()
	if i >= len(t.textures) {
		return nil, false
	}
	return t.textures[i], true
}

// handle returns the handle for name, or InvalidHandle.
func (t *frameTable) handle(name string) TextureHandle {
	if ft, ok := t.byName[name]; ok {
		return ft.handle
	}
	return InvalidHandle
}

// names maps every handle of the frame to its texture name.
func (t *frameTable) names() map[TextureHandle]string {
	m := make(map[TextureHandle]string, len(t.textures))
	for _, ft := range t.textures {
		m[ft.handle] = ft.desc.Name
	}
	return m
}

// realize allocates (or reuses) a backend texture for every declared name.
func (t *frameTable) realize(dev rhi.Device, cache *textureCache, evictAfter int, log *slog.Logger) error {
	cache.uses++
	for _, ft := range t.textures {
		tex, err := cache.acquire(dev, ft.desc, log)
		if err != nil {
			return err
		}
		ft.tex = tex
	}
	cache.evict(dev, evictAfter, log)
	return nil
}
