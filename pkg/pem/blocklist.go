package pem

import "strings"

// BlockList is the ordered document being interpreted. It is mutable and
// index-addressable; the chain interpreter may splice decrypted
// sub-documents into it mid-walk. A BlockList is owned by a single
// interpretation pass and is not safe for concurrent mutation.
type BlockList struct {
	blocks []*Block
}

// NewBlockList creates a list from the given blocks.
func NewBlockList(blocks ...*Block) *BlockList {
	return &BlockList{blocks: blocks}
}

// Len returns the number of blocks. It grows when blocks are spliced in.
func (l *BlockList) Len() int {
	return len(l.blocks)
}

// Get returns the block at index i, or nil when out of range.
func (l *BlockList) Get(i int) *Block {
	if i < 0 || i >= len(l.blocks) {
		return nil
	}
	return l.blocks[i]
}

// Append adds blocks to the end of the list.
func (l *BlockList) Append(blocks ...*Block) {
	l.blocks = append(l.blocks, blocks...)
}

// InsertAfter splices the blocks of other into the list immediately after
// index i, shifting subsequent elements. Inserted blocks are visited by a
// cursor that advances one step per block, never skipped or reprocessed.
func (l *BlockList) InsertAfter(i int, other *BlockList) {
	if other == nil || len(other.blocks) == 0 {
		return
	}
	at := i + 1
	if at > len(l.blocks) {
		at = len(l.blocks)
	}
	tail := append([]*Block(nil), l.blocks[at:]...)
	l.blocks = append(l.blocks[:at], other.blocks...)
	l.blocks = append(l.blocks, tail...)
}

// Blocks returns the underlying slice. Callers must not mutate it while
// an interpretation pass is running.
func (l *BlockList) Blocks() []*Block {
	return l.blocks
}

// RenderRange returns the concatenated textual form of the blocks in
// [from, to). Indexes are clamped to the list bounds; an empty range
// renders as "". This is the text a whole-remainder signature covers.
func (l *BlockList) RenderRange(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(l.blocks) {
		to = len(l.blocks)
	}
	var sb strings.Builder
	for i := from; i < to; i++ {
		sb.WriteString(l.blocks[i].Render())
	}
	return sb.String()
}

// Render returns the textual form of the whole document.
func (l *BlockList) Render() string {
	return l.RenderRange(0, len(l.blocks))
}
