package morph

import "reflect"

// sourceIndex maps target SourceRefs to their locations. It is rebuilt
// lazily when the bank layout or any channel revision changes.
type sourceIndex struct {
	dirty bool
	built bool
	revs  []uint64
	refs  map[any][]TargetLocation
}

func (x *sourceIndex) current(channels []*Channel) bool {
	if x.dirty || !x.built || len(x.revs) != len(channels) {
		return false
	}
	for i, ch := range channels {
		if x.revs[i] != ch.revision {
			return false
		}
	}
	return true
}

func (x *sourceIndex) rebuild(channels []*Channel) {
	if x.refs == nil {
		x.refs = make(map[any][]TargetLocation)
	}
	clear(x.refs)
	x.revs = resize(x.revs, len(channels))
	for i, ch := range channels {
		x.revs[i] = ch.revision
		for slot := 0; slot <= ch.NumProgressive(); slot++ {
			t := ch.slotTarget(slot)
			if t == nil || !indexable(t.SourceRef) {
				continue
			}
			x.refs[t.SourceRef] = append(x.refs[t.SourceRef], TargetLocation{Channel: i, Slot: slot})
		}
	}
	x.dirty = false
	x.built = true
}

// indexable reports whether ref can be used as a map key.
func indexable(ref any) bool {
	if ref == nil {
		return false
	}
	return reflect.ValueOf(ref).Comparable()
}

// LookupSource returns every target whose SourceRef equals ref, in bank
// order. Refs that are nil or not comparable are never found.
func (b *Bank) LookupSource(ref any) []TargetLocation {
	if !indexable(ref) {
		return nil
	}
	if !b.index.current(b.channels) {
		b.index.rebuild(b.channels)
	}
	return append([]TargetLocation(nil), b.index.refs[ref]...)
}
