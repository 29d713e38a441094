// Package layout defines the fixed-offset binary blocks inside bitmap and
// sound tags and provides bounds-checked access to them.
//
// Blocks are extracted from their enclosing buffer with a single bounds
// check; accessor methods on a block cannot read outside it. Every
// out-of-range offset, size, or pointer is reported as
// [convtype.ErrMalformedTagData].
package layout
