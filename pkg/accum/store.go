package accum

import (
	"fmt"
	"unsafe"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

const (
	MinChunkCapacity     = 64
	DefaultChunkCapacity = 4096
)

type StoreConfig struct {
	// ChunkCapacity is the number of slots per chunk, a power of two.
	ChunkCapacity int
	// PTyp is the physical type of one slot.
	PTyp common.PhyType
}

// Chunk holds the state of ChunkCapacity consecutive ordinals. Its regions
// are allocated once and never move.
type Chunk struct {
	Values   []byte
	Validity []byte
}

func (c *Chunk) ValuesPtr() unsafe.Pointer {
	return util.BytesSliceToPointer(c.Values)
}

func (c *Chunk) ValidityPtr() unsafe.Pointer {
	return util.BytesSliceToPointer(c.Validity)
}

// Store is a growable sequence of chunks addressed by ordinal.
type Store struct {
	capacity int
	shift    uint
	mask     int
	ptyp     common.PhyType
	alloc    util.Allocator
	init     func(*Chunk)
	chunks   []*Chunk
}

func NewStore(cfg StoreConfig, alloc util.Allocator, init func(*Chunk)) (*Store, error) {
	capa := cfg.ChunkCapacity
	if capa < MinChunkCapacity || !util.IsPowerOfTwo(uint64(capa)) {
		return nil, fmt.Errorf("chunk capacity %d must be a power of two >= %d", capa, MinChunkCapacity)
	}
	switch cfg.PTyp {
	case common.INT32, common.INT64, common.FLOAT, common.DOUBLE, common.INTERVAL, common.BIT:
	default:
		return nil, fmt.Errorf("usp slot type %v", cfg.PTyp)
	}
	util.AssertFunc(alloc != nil && init != nil)
	return &Store{
		capacity: capa,
		shift:    util.Log2(uint64(capa)),
		mask:     capa - 1,
		ptyp:     cfg.PTyp,
		alloc:    alloc,
		init:     init,
	}, nil
}

// EnsureCapacity appends chunks until ordinal is addressable. On failure
// the store is left as it was before the failing chunk.
func (store *Store) EnsureCapacity(ordinal int) error {
	util.AssertFunc(ordinal >= 0)
	for ordinal >= store.Capacity() {
		values, err := store.alloc.Alloc(store.ptyp.DataBytes(store.capacity))
		if err != nil {
			return fmt.Errorf("allocate values of chunk %d: %w", len(store.chunks), err)
		}
		validity, err := store.alloc.Alloc(util.EntryCount(store.capacity))
		if err != nil {
			store.alloc.Free(values)
			return fmt.Errorf("allocate validity of chunk %d: %w", len(store.chunks), err)
		}
		c := &Chunk{Values: values, Validity: validity}
		store.init(c)
		store.chunks = append(store.chunks, c)
	}
	return nil
}

// AddressFor splits an ordinal into chunk index and offset.
func (store *Store) AddressFor(ordinal int) (int, int) {
	if util.DebugChecks && (ordinal < 0 || ordinal >= store.Capacity()) {
		panic(fmt.Sprintf("ordinal %d out of store capacity %d", ordinal, store.Capacity()))
	}
	return ordinal >> store.shift, ordinal & store.mask
}

func (store *Store) SetInitializer(init func(*Chunk)) {
	util.AssertFunc(init != nil)
	store.init = init
}

func (store *Store) Release() {
	for _, c := range store.chunks {
		store.alloc.Free(c.Values)
		store.alloc.Free(c.Validity)
	}
	store.chunks = nil
}

// TakeChunks hands every chunk to the caller. The chunk memory no longer
// counts against the allocator.
func (store *Store) TakeChunks() []*Chunk {
	ret := store.chunks
	for _, c := range ret {
		store.alloc.Free(c.Values)
		store.alloc.Free(c.Validity)
	}
	store.chunks = nil
	return ret
}

func (store *Store) Capacity() int {
	return len(store.chunks) << store.shift
}

func (store *Store) ChunkCapacity() int {
	return store.capacity
}

func (store *Store) ChunkCount() int {
	return len(store.chunks)
}

func (store *Store) Chunk(i int) *Chunk {
	return store.chunks[i]
}

func (store *Store) PTyp() common.PhyType {
	return store.ptyp
}

// Allocated is the number of bytes held by the chunks.
func (store *Store) Allocated() int {
	return len(store.chunks) * (store.ptyp.DataBytes(store.capacity) + util.EntryCount(store.capacity))
}
