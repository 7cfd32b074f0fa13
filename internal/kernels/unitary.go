package kernels

// AddUnitary performs dst += src
func AddUnitary[T Number](dst, src []T) {
	// Unrolled loop for better pipelining
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] += src[i]
		dst[i+1] += src[i+1]
		dst[i+2] += src[i+2]
		dst[i+3] += src[i+3]
	}
	// Handle remainder
	for ; i < len(dst); i++ {
		dst[i] += src[i]
	}
}

// SubUnitary performs dst -= src
func SubUnitary[T Number](dst, src []T) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] -= src[i]
		dst[i+1] -= src[i+1]
		dst[i+2] -= src[i+2]
		dst[i+3] -= src[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] -= src[i]
	}
}

// AxpyUnitary performs y += alpha * x
func AxpyUnitary[T Number](alpha T, x, y []T) {
	i := 0
	for ; i <= len(y)-4; i += 4 {
		y[i] += x[i] * alpha
		y[i+1] += x[i+1] * alpha
		y[i+2] += x[i+2] * alpha
		y[i+3] += x[i+3] * alpha
	}
	for ; i < len(y); i++ {
		y[i] += x[i] * alpha
	}
}

// ScalUnitary performs x *= alpha
func ScalUnitary[T Number](alpha T, x []T) {
	i := 0
	for ; i <= len(x)-4; i += 4 {
		x[i] *= alpha
		x[i+1] *= alpha
		x[i+2] *= alpha
		x[i+3] *= alpha
	}
	for ; i < len(x); i++ {
		x[i] *= alpha
	}
}

// DotUnitary computes the dot product of two dense vectors
func DotUnitary[T Number](a, b []T) T {
	var sum T
	i := 0
	for ; i <= len(a)-4; i += 4 {
		sum += a[i] * b[i]
		sum += a[i+1] * b[i+1]
		sum += a[i+2] * b[i+2]
		sum += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// MatVecUnitary performs dst = mat * vec where mat is rows x cols row-major
// with leading dimension lda
func MatVecUnitary[T Number](dst, mat, vec []T, rows, cols, lda int) {
	for i := 0; i < rows; i++ {
		rowStart := i * lda
		dst[i] = DotUnitary(mat[rowStart:rowStart+cols], vec[:cols])
	}
}
