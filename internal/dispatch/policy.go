// Package dispatch decides which adapters handle a job and in what order.
package dispatch

import (
	"fmt"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/model"
)

// Chain is an ordered list of adapters; the first success wins.
type Chain []adapter.Adapter

// IDs returns the adapter IDs in order.
func (c Chain) IDs() []adapter.ID {
	ids := make([]adapter.ID, len(c))
	for i, a := range c {
		ids[i] = a.ID()
	}
	return ids
}

// Rule describes one row of the decision table.
type Rule struct {
	Name    string
	Adapter adapter.ID
}

// DocumentTargets answers whether a target belongs to the document
// allow-list.
type DocumentTargets func(target string) bool

// Policy resolves adapter chains. It is immutable after New.
type Policy struct {
	fetch      adapter.Adapter
	raster     adapter.Adapter
	document   adapter.Adapter
	audioVideo adapter.Adapter
	isDocument DocumentTargets
}

// New builds a policy over the four adapters. All are required.
func New(fetch, raster, document, audioVideo adapter.Adapter, isDocument DocumentTargets) (*Policy, error) {
	for name, a := range map[string]adapter.Adapter{
		"fetch": fetch, "raster": raster, "document": document, "audio/video": audioVideo,
	} {
		if a == nil {
			return nil, fmt.Errorf("dispatch: %s adapter is required", name)
		}
	}
	if isDocument == nil {
		isDocument = func(target string) bool { return document.Capable(model.CategoryUnknown, target) }
	}
	return &Policy{
		fetch:      fetch,
		raster:     raster,
		document:   document,
		audioVideo: audioVideo,
		isDocument: isDocument,
	}, nil
}

// ResolveFetch returns the chain for remote fetch jobs.
func (p *Policy) ResolveFetch() Chain {
	return Chain{p.fetch}
}

// Resolve returns the chain for a conversion. Rules are checked in order:
//
//  1. image source the raster adapter can encode -> raster
//  2. document allow-listed target with the document backend installed -> document
//  3. video or audio source -> audio/video
//  4. anything else -> audio/video
func (p *Policy) Resolve(cat model.Category, target string, tools model.Tools) Chain {
	if cat == model.CategoryImage && p.raster.Capable(cat, target) {
		return Chain{p.raster}
	}
	if p.isDocument(target) && p.document.Available(tools) == nil {
		return Chain{p.document}
	}
	return Chain{p.audioVideo}
}

// Table returns the decision table in evaluation order.
func (p *Policy) Table() []Rule {
	return []Rule{
		{Name: "image source, raster-encodable target", Adapter: p.raster.ID()},
		{Name: "document target, document backend available", Adapter: p.document.ID()},
		{Name: "video or audio source", Adapter: p.audioVideo.ID()},
		{Name: "fallback", Adapter: p.audioVideo.ID()},
	}
}

// Adapters returns every adapter known to the policy, fetcher first.
func (p *Policy) Adapters() []adapter.Adapter {
	return []adapter.Adapter{p.fetch, p.raster, p.document, p.audioVideo}
}
