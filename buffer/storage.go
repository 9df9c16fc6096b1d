// Package buffer provides reusable scratch storage for building sub-range
// views of multichannel sample buffers without per-call allocation.
//
// A rendering cycle that splits a buffer around scheduled events needs many
// short-lived "slice of each channel from frame a to frame b" views. Storage
// keeps one pre-sized backing array of views alive for the lifetime of the
// rendering context, so producing those views never touches the allocator.
package buffer

import "fmt"

// Storage holds the backing array for per-channel sub-slice views. It is
// exclusively owned by one rendering context and is not safe for concurrent
// use. Allocation happens in NewStorage (and only again if a call ever sees
// more channels than channelCap).
type Storage[S any] struct {
	views    [][]S
	borrowed bool
}

// NewStorage returns storage able to hold views for up to channelCap
// channels without further allocation.
func NewStorage[S any](channelCap int) *Storage[S] {
	return &Storage[S]{views: make([][]S, 0, channelCap)}
}

// Mid builds one view per channel covering chunk[i][start:end] and returns a
// guard over them. The guard borrows storage: it must be Released before the
// next Mid call on the same storage. Panics if start > end, if end exceeds
// any channel's length, or if storage is still borrowed by a previous guard.
func Mid[S any](storage *Storage[S], chunk [][]S, start, end int) Guard[S] {
	if storage.borrowed {
		panic("buffer: storage already borrowed, release the previous guard first")
	}
	if start > end {
		panic(fmt.Sprintf("buffer: invalid sub-range [%d:%d]", start, end))
	}
	views := storage.views[:0]
	for i, channel := range chunk {
		if end > len(channel) {
			panic(fmt.Sprintf("buffer: sub-range end %d exceeds channel %d length %d", end, i, len(channel)))
		}
		views = append(views, channel[start:end])
	}
	storage.views = views[:0]
	storage.borrowed = true
	return Guard[S]{storage: storage, views: views}
}

// Guard exposes the sub-slice views built by Mid. The views alias the
// channel buffers passed to Mid; writes through them are writes into those
// buffers. A guard is only valid until Release.
type Guard[S any] struct {
	storage *Storage[S]
	views   [][]S
}

// Len returns the number of channels.
func (g *Guard[S]) Len() int { return len(g.views) }

// At returns the view for channel i.
func (g *Guard[S]) At(i int) []S { return g.views[i] }

// Slices returns all channel views. The returned slice is backed by the
// guarded storage and must not be retained past Release.
func (g *Guard[S]) Slices() [][]S { return g.views }

// Release returns the borrowed views to the storage. Panics on double
// release.
func (g *Guard[S]) Release() {
	if g.storage == nil {
		panic("buffer: guard released twice")
	}
	g.storage.borrowed = false
	g.storage = nil
	g.views = nil
}
