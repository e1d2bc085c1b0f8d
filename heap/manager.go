// Package heap owns the byte arena and the indirection table that
// let the Lakesis interpreter address movable objects by a stable id
// instead of a physical offset. Objects can be relocated by the
// garbage collector (see gc.go) without invalidating outstanding
// Reference-tagged words, which hold ids, never offsets.
//
// Grounded on _examples/original_source/src/interpreter/memory.rs's
// Memory (bump-pointer arena, allocations table, GC-then-grow retry
// ladder in try_allocate_region), simplified from its full
// region/virtual-address-mapper machinery down to spec.md's flatter
// id → (offset, length) model. Diagnostic dump styled on
// Peirceman-windlang's Data map[uint32][]byte field idiom.
package heap

import (
	"encoding/binary"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/lakesis-vm/lakesis/diag"
	"github.com/lakesis-vm/lakesis/word"
)

const wordSize = 8

// object is one indirection table entry: a stable id resolving to the
// object's current physical placement in the arena, plus its own tag
// bits. Tags live per object (not in one arena-wide bitmap) so that
// relocating an object during compaction never has to re-derive which
// slots are word-aligned relative to a new absolute address: the tag
// slice is indexed relative to the object's own start and simply
// travels with the bytes.
type object struct {
	id     uint64
	offset uint64
	length uint64
	tags   []word.Tag // len = ceil(length/wordSize); tags[i] covers local bytes [i*8, i*8+8)
	live   bool        // scratch bit, valid only during a Collect pass
}

// Manager owns the heap arena, the indirection table, and the bump
// pointer marking the end of the live region.
type Manager struct {
	arena       []byte
	bump        uint64
	maxCapacity uint64
	objects     map[uint64]*object
	order       []uint64 // ids in ascending offset order
	nextID      uint64
	log         *diag.Logger
}

// NewManager allocates an arena of initialSize bytes that may grow by
// doubling up to maxSize before an allocation fails fatally.
func NewManager(initialSize, maxSize uint64, log *diag.Logger) *Manager {
	return &Manager{
		arena:       make([]byte, initialSize),
		maxCapacity: maxSize,
		objects:     make(map[uint64]*object),
		nextID:      1,
		log:         log,
	}
}

// Capacity returns the arena's current total size.
func (m *Manager) Capacity() uint64 {
	return uint64(len(m.arena))
}

// FreeTail returns the number of bytes between the bump pointer and
// the end of the arena, the invariant spec.md §8 checks after GC:
// capacity − Σ length of live objects.
func (m *Manager) FreeTail() uint64 {
	return m.Capacity() - m.bump
}

func tagSlotCount(length uint64) uint64 {
	return (length + wordSize - 1) / wordSize
}

// Allocate reserves size bytes and returns a fresh id. roots is the
// caller's current GC root set (the ids held in Reference-tagged
// registers and live stack slots), consulted only if a collection is
// needed to make room.
func (m *Manager) Allocate(size uint64, roots []uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("heap: allocation size must be > 0")
	}

	if id, ok := m.tryCarve(size); ok {
		return id, nil
	}

	if err := m.Collect(roots); err != nil {
		return 0, err
	}
	if id, ok := m.tryCarve(size); ok {
		return id, nil
	}

	for m.Capacity() < m.maxCapacity {
		m.grow()
		if id, ok := m.tryCarve(size); ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("heap: out of memory allocating %s (arena at %s of %s)",
		humanize.Bytes(size), humanize.Bytes(m.bump), humanize.Bytes(m.Capacity()))
}

// tryCarve attempts a bump allocation without growing or collecting.
// Objects pack tightly, back to back, with no inter-object padding:
// the free tail invariant requires exactness, not alignment.
func (m *Manager) tryCarve(size uint64) (uint64, bool) {
	offset := m.bump
	if offset+size > m.Capacity() {
		return 0, false
	}

	for i := offset; i < offset+size; i++ {
		m.arena[i] = 0
	}

	id := m.nextID
	m.nextID++
	m.objects[id] = &object{
		id:     id,
		offset: offset,
		length: size,
		tags:   make([]word.Tag, tagSlotCount(size)),
	}
	m.order = append(m.order, id)
	m.bump = offset + size

	return id, true
}

func (m *Manager) grow() {
	newSize := m.Capacity() * 2
	if newSize == 0 {
		newSize = wordSize
	}
	if newSize > m.maxCapacity {
		newSize = m.maxCapacity
	}

	grown := make([]byte, newSize)
	copy(grown, m.arena)
	m.arena = grown

	if m.log != nil {
		m.log.Info("heap grown to %s", humanize.Bytes(newSize))
	}
}

// Resolve returns id's current physical offset and length.
func (m *Manager) Resolve(id uint64) (offset, length uint64, err error) {
	obj, ok := m.objects[id]
	if !ok {
		return 0, 0, fmt.Errorf("heap: dereferencing invalid id %d", id)
	}
	return obj.offset, obj.length, nil
}

func (m *Manager) checkAccess(id, byteOffset, size uint64) (*object, error) {
	obj, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("heap: dereferencing invalid id %d", id)
	}
	if byteOffset+size > obj.length {
		return nil, fmt.Errorf("heap: out-of-bounds access on id %d: offset %d size %d length %d",
			id, byteOffset, size, obj.length)
	}
	return obj, nil
}

// ReadWord reads a typed word at byteOffset inside object id.
// Unaligned reads always report tag Data (spec.md §4.3: tag storage
// is per word-aligned slot only).
func (m *Manager) ReadWord(id, byteOffset uint64) (word.Word, error) {
	obj, err := m.checkAccess(id, byteOffset, wordSize)
	if err != nil {
		return word.Zero, err
	}

	addr := obj.offset + byteOffset
	v := binary.LittleEndian.Uint64(m.arena[addr : addr+wordSize])

	if byteOffset%wordSize != 0 {
		return word.Of(v), nil
	}
	return word.Word{Value: v, Tag: obj.tags[byteOffset/wordSize]}, nil
}

// WriteWord writes a typed word at byteOffset inside object id. An
// unaligned write clobbers both aligned slots it overlaps, so their
// tags are forced to Data: a value straddling two
// word-aligned tag slots cannot itself be well-formed as a reference.
func (m *Manager) WriteWord(id, byteOffset uint64, w word.Word) error {
	obj, err := m.checkAccess(id, byteOffset, wordSize)
	if err != nil {
		return err
	}

	addr := obj.offset + byteOffset
	binary.LittleEndian.PutUint64(m.arena[addr:addr+wordSize], w.Value)

	if byteOffset%wordSize == 0 {
		obj.tags[byteOffset/wordSize] = w.Tag
	} else {
		slot := byteOffset / wordSize
		obj.tags[slot] = word.Data
		obj.tags[slot+1] = word.Data
	}
	return nil
}

// ReadBytes returns a copy of size raw bytes at byteOffset inside
// object id, ignoring tags entirely — used for strings and other
// untyped payloads.
func (m *Manager) ReadBytes(id, byteOffset, size uint64) ([]byte, error) {
	obj, err := m.checkAccess(id, byteOffset, size)
	if err != nil {
		return nil, err
	}
	addr := obj.offset + byteOffset
	out := make([]byte, size)
	copy(out, m.arena[addr:addr+size])
	return out, nil
}

// WriteBytes writes data at byteOffset inside object id, ignoring
// tags entirely.
func (m *Manager) WriteBytes(id, byteOffset uint64, data []byte) error {
	obj, err := m.checkAccess(id, byteOffset, uint64(len(data)))
	if err != nil {
		return err
	}
	addr := obj.offset + byteOffset
	copy(m.arena[addr:addr+uint64(len(data))], data)
	return nil
}

func (m *Manager) String() string {
	out := fmt.Sprintf("heap: %s used of %s (max %s), %d live objects\n",
		humanize.Bytes(m.bump), humanize.Bytes(m.Capacity()), humanize.Bytes(m.maxCapacity), len(m.objects))
	for _, id := range m.order {
		obj, ok := m.objects[id]
		if !ok {
			continue
		}
		out += fmt.Sprintf("  id=%d offset=%#08x length=%s\n", obj.id, obj.offset, humanize.Bytes(obj.length))
	}
	return out
}
