package layout

// ForEach calls fn with every multi-index of ext, visiting them in order o.
// The index slice is reused between calls and must not be retained.
func ForEach(ext Extents, o Order, fn func(idx []int)) {
	if ext.Size() == 0 {
		return
	}
	idx := make([]int, len(ext))
	for {
		fn(idx)
		if !advance(ext, o, idx, nil, nil) {
			return
		}
	}
}

// Walk visits every multi-index of ext in order o and reports, for each set of
// strides, the linear offset of that index. Offsets are updated incrementally
// so no multiplication happens per element. The offs slice is reused.
func Walk(ext Extents, o Order, strides [][]int, fn func(offs []int)) {
	if ext.Size() == 0 {
		return
	}
	idx := make([]int, len(ext))
	offs := make([]int, len(strides))
	for {
		fn(offs)
		if !advance(ext, o, idx, strides, offs) {
			return
		}
	}
}

// advance steps idx to the next multi-index like an odometer and keeps offs in
// sync. It reports false once every index has been visited.
func advance(ext Extents, o Order, idx []int, strides [][]int, offs []int) bool {
	r := len(ext)
	for step := 0; step < r; step++ {
		k := r - 1 - step
		if o == ColMajor {
			k = step
		}
		idx[k]++
		for s := range strides {
			offs[s] += strides[s][k]
		}
		if idx[k] < ext[k] {
			return true
		}
		for s := range strides {
			offs[s] -= ext[k] * strides[s][k]
		}
		idx[k] = 0
	}
	return false
}

// Ravel is the linear offset of idx under strides.
func Ravel(idx, strides []int) int {
	off := 0
	for k, i := range idx {
		off += i * strides[k]
	}
	return off
}

// Unravel writes into idx the multi-index that sits at position flat of the
// order-o enumeration of ext.
func Unravel(flat int, ext Extents, o Order, idx []int) {
	if o == ColMajor {
		for k := 0; k < len(ext); k++ {
			idx[k] = flat % ext[k]
			flat /= ext[k]
		}
		return
	}
	for k := len(ext) - 1; k >= 0; k-- {
		idx[k] = flat % ext[k]
		flat /= ext[k]
	}
}
