// SPDX-License-Identifier: MIT
package render

// Stride returns the step between sampled buffer indices when bufferLen
// values are mapped onto extent columns. It is never less than 1.
func Stride(bufferLen, extent int) int {
	if extent < 1 {
		extent = 1
	}
	return max(1, bufferLen/extent)
}

// Index maps an output column to its buffer index.
func Index(column, stride int) int {
	return column * stride
}

// Columns bounds the rendered column range so that every mapped index,
// including the last column's Index+stride-1, stays inside the buffer.
func Columns(bufferLen, extent, stride int) int {
	if stride < 1 || bufferLen < 1 {
		return 0
	}
	return max(0, min(extent, bufferLen/stride))
}

// Next returns the index a column's segment ends at: idx+stride, or idx
// itself when that would run past the buffer. The last column therefore
// degenerates to a single point instead of reading out of range.
func Next(idx, stride, bufferLen int) int {
	if n := idx + stride; n < bufferLen {
		return n
	}
	return idx
}
