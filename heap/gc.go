package heap

import (
	"encoding/binary"

	"github.com/lakesis-vm/lakesis/word"
)

// Collect runs one full mark/sweep/compact cycle synchronously.
// roots is the set of ids currently held in Reference-tagged
// registers or live stack slots, gathered by the caller (the
// interpreter owns the register file and stack, not the heap).
//
// Grounded on _examples/original_source/src/interpreter/memory.rs's
// force_garbage_collection: a mark worklist seeded from the roots,
// a sweep pass that drops everything left unmarked, then a compact
// pass that relocates survivors to ascending offsets. Simplified to
// spec.md's flat id table (the original also tracks non-collectible
// allocations and a separate virtual-address layer that spec.md does
// not call for).
func (m *Manager) Collect(roots []uint64) error {
	visited := make(map[uint64]bool, len(m.objects))
	worklist := append([]uint64(nil), roots...)

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if visited[id] {
			continue
		}

		obj, ok := m.objects[id]
		if !ok {
			if m.log != nil {
				m.log.Warning("GC: reference to unknown id %d treated as null", id)
			}
			continue
		}

		visited[id] = true
		obj.live = true

		worklist = append(worklist, m.scanChildren(obj)...)
	}

	m.sweep(visited)
	m.compact()

	return nil
}

// scanChildren walks obj's word-aligned local slots and returns the
// ids of every Reference-tagged child word (spec.md §4.5 step 2). The
// final slot is skipped when obj.length isn't a multiple of wordSize,
// since no full word — and therefore no valid Reference tag — can
// ever have been written there.
func (m *Manager) scanChildren(obj *object) []uint64 {
	var children []uint64

	for slot, tag := range obj.tags {
		if tag != word.Reference {
			continue
		}
		localOffset := uint64(slot) * wordSize
		if localOffset+wordSize > obj.length {
			continue
		}
		addr := obj.offset + localOffset
		v := binary.LittleEndian.Uint64(m.arena[addr : addr+wordSize])
		children = append(children, v)
	}

	return children
}

// sweep retires every id that mark didn't reach. Ids are never
// reused: dangling Reference-tagged words are already undefined
// behavior per spec.md §4.5, and a monotonic counter makes stale
// references fail closed (Resolve returns an error) instead of
// silently aliasing a new object.
func (m *Manager) sweep(visited map[uint64]bool) {
	survivors := m.order[:0]
	for _, id := range m.order {
		if visited[id] {
			survivors = append(survivors, id)
			continue
		}
		delete(m.objects, id)
	}
	m.order = survivors

	for _, obj := range m.objects {
		obj.live = false
	}
}

// compact walks the survivors in current offset order and relocates
// each to the next free cursor position, tags traveling for free
// since they live on the object rather than in an arena-wide table,
// then resets the bump pointer to the new end of the live region
// (spec.md §4.5 step 4). Survivors pack with no padding, so the free
// tail is exactly capacity minus the sum of their lengths.
func (m *Manager) compact() {
	survivors := append([]uint64(nil), m.order...)
	sortByOffset(survivors, m.objects)

	cursor := uint64(0)
	for _, id := range survivors {
		obj := m.objects[id]
		if obj.offset != cursor {
			copy(m.arena[cursor:cursor+obj.length], m.arena[obj.offset:obj.offset+obj.length])
			obj.offset = cursor
		}
		cursor += obj.length
	}

	m.bump = cursor
	m.order = survivors
}

func sortByOffset(ids []uint64, objects map[uint64]*object) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && objects[ids[j-1]].offset > objects[ids[j]].offset; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
