package layout

// Order is a canonical contiguous layout.
type Order uint8

const (
	// RowMajor stores the last index fastest (C order).
	RowMajor Order = iota
	// ColMajor stores the first index fastest (Fortran order).
	ColMajor
)

func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColMajor:
		return "col-major"
	}
	return "unknown"
}

// Strides returns the canonical strides of ext in order o.
//
//	row-major:    stride(k) = extent(k+1) * ... * extent(R-1)
//	column-major: stride(k) = extent(0) * ... * extent(k-1)
func (o Order) Strides(ext Extents) []int {
	s := make([]int, len(ext))
	acc := 1
	if o == ColMajor {
		for k := range ext {
			s[k] = acc
			acc *= ext[k]
		}
		return s
	}
	for k := len(ext) - 1; k >= 0; k-- {
		s[k] = acc
		acc *= ext[k]
	}
	return s
}
