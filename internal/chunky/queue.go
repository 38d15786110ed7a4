package chunky

import (
	"encoding/binary"
	"fmt"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// queueRefSize is the width of the per-entry header Queue writes ahead of
// every payload: one tag byte distinguishing a same-chunk entry from a
// jump-to-next-chunk marker, plus the entry's total size (header included)
// for the same-chunk case.
const queueRefSize = 9

const (
	queueTagSameChunk byte = 0
	queueTagNextChunk byte = 1
)

func putSameChunkHeader(dest []byte, totalSize uint64) {
	dest[0] = queueTagSameChunk
	binary.LittleEndian.PutUint64(dest[1:queueRefSize], totalSize)
}

func putNextChunkHeader(dest []byte) {
	dest[0] = queueTagNextChunk
}

func readHeader(src []byte) (tag byte, totalSize uint64) {
	tag = src[0]
	if tag == queueTagSameChunk {
		totalSize = binary.LittleEndian.Uint64(src[1:queueRefSize])
	}
	return tag, totalSize
}

// Queue is a FIFO of heterogeneously sized byte payloads spread across a
// growing chain of chunks. Entries are written with Enqueue and consumed in
// order with Dequeue; chunks that have been fully drained are not destroyed
// immediately but queued up for DropOldChunks, so that a reader which still
// holds a pointer into the previous turn's entries never has it invalidated
// mid-turn.
type Queue struct {
	ident            chunk.Ident
	handler          chunk.Handler
	typicalChunkSize int
	chunks           []chunkRef

	firstChunkAt *Cell[uint64]
	lastChunkAt  *Cell[uint64]
	readAt       *Cell[uint64]
	writeAt      *Cell[uint64]
	len          *Cell[uint64]

	chunksToDrop []chunkRef
}

// NewQueue opens (or creates) a queue.
func NewQueue(handler chunk.Handler, ident chunk.Ident, typicalChunkSize int) (*Queue, error) {
	firstChunkAt, err := OpenCell(handler, ident.Sub("first_chunk"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}
	lastChunkAt, err := OpenCell(handler, ident.Sub("last_chunk"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}
	readAt, err := OpenCell(handler, ident.Sub("read"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}
	writeAt, err := OpenCell(handler, ident.Sub("write"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}
	lenCell, err := OpenCell(handler, ident.Sub("len"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		ident:            ident,
		handler:          handler,
		typicalChunkSize: typicalChunkSize,
		firstChunkAt:     firstChunkAt,
		lastChunkAt:      lastChunkAt,
		readAt:           readAt,
		writeAt:          writeAt,
		len:              lenCell,
	}

	if lenCell.Get() > 0 {
		offset := firstChunkAt.Get()
		for offset <= lastChunkAt.Get() {
			chunkIdent := ident.Sub(offset)
			data, err := handler.Load(chunkIdent)
			if err != nil {
				return nil, fmt.Errorf("chunky: queue %q: reload chunk %q: %w", ident.String(), chunkIdent.String(), err)
			}
			q.chunks = append(q.chunks, chunkRef{ident: chunkIdent, data: data})
			offset += uint64(len(data))
		}
	}

	if len(q.chunks) == 0 {
		chunkIdent := ident.Sub(lastChunkAt.Get())
		data, _ := handler.LoadOrCreate(chunkIdent, typicalChunkSize)
		q.chunks = append(q.chunks, chunkRef{ident: chunkIdent, data: data})
	}

	return q, nil
}

// Len returns the number of entries currently queued.
func (q *Queue) Len() uint64 {
	return q.len.Get()
}

// IsEmpty reports whether the queue holds no entries.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Enqueue reserves space for an entry of size bytes and returns the slot
// to write its payload into.
func (q *Queue) Enqueue(size int) []byte {
	for {
		offset := q.writeAt.Get() - q.lastChunkAt.Get()
		last := &q.chunks[len(q.chunks)-1]
		minSpace := queueRefSize + size + queueRefSize

		if int(offset)+minSpace <= len(last.data) {
			putSameChunkHeader(last.data[offset:], uint64(queueRefSize+size))
			payload := last.data[int(offset)+queueRefSize : int(offset)+queueRefSize+size]
			q.writeAt.Set(q.writeAt.Get() + uint64(queueRefSize+size))
			q.len.Set(q.len.Get() + 1)
			return payload
		}

		putNextChunkHeader(last.data[offset:])
		newChunkSize := q.typicalChunkSize
		if minSpace > newChunkSize {
			newChunkSize = minSpace
		}
		q.lastChunkAt.Set(q.lastChunkAt.Get() + uint64(len(last.data)))
		q.writeAt.Set(q.lastChunkAt.Get())

		chunkIdent := q.ident.Sub(q.lastChunkAt.Get())
		data := q.handler.Create(chunkIdent, newChunkSize)
		q.chunks = append(q.chunks, chunkRef{ident: chunkIdent, data: data})
		// retry now that a fresh chunk is in place
	}
}

// Dequeue returns the next entry's payload, or ok == false if the queue is
// empty. The returned slice aliases the queue's backing storage and stays
// valid until the next DropOldChunks call.
func (q *Queue) Dequeue() (payload []byte, ok bool) {
	for {
		if q.readAt.Get() == q.writeAt.Get() {
			return nil, false
		}

		offset := q.readAt.Get() - q.firstChunkAt.Get()
		first := q.chunks[0]
		tag, totalSize := readHeader(first.data[offset:])

		if tag == queueTagNextChunk {
			q.firstChunkAt.Set(q.firstChunkAt.Get() + uint64(len(first.data)))
			q.readAt.Set(q.firstChunkAt.Get())
			q.chunksToDrop = append(q.chunksToDrop, first)
			q.chunks = q.chunks[1:]
			continue
		}

		payload = first.data[int(offset)+queueRefSize : int(offset)+int(totalSize)]
		q.readAt.Set(q.readAt.Get() + totalSize)
		q.len.Set(q.len.Get() - 1)
		return payload, true
	}
}

// DropOldChunks destroys every chunk that Dequeue has fully consumed since
// the last call. Callers should invoke this once per turn, after anything
// that might still be reading an entry from an old chunk has finished.
func (q *Queue) DropOldChunks() {
	for _, c := range q.chunksToDrop {
		q.handler.Destroy(c.ident, c.data)
	}
	q.chunksToDrop = q.chunksToDrop[:0]
}

// Close releases in-memory resources for every chunk the queue owns,
// preserving their persisted images. Chunks already pending in
// chunksToDrop are destroyed rather than unloaded, since they carry no
// useful persisted state.
func (q *Queue) Close() {
	q.firstChunkAt.Close()
	q.lastChunkAt.Close()
	q.readAt.Close()
	q.writeAt.Close()
	q.len.Close()
	for _, c := range q.chunksToDrop {
		q.handler.Destroy(c.ident, c.data)
	}
	q.chunksToDrop = nil
	for _, c := range q.chunks {
		q.handler.Unload(c.ident, c.data)
	}
}
