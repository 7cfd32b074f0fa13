package codec

import (
	"fmt"
	"io"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// RecordBatchBuilder converts matrices to and from Arrow record batches.
// A rows x cols matrix becomes a batch of rows records with one Float64
// column per matrix column, named c0, c1, ...
type RecordBatchBuilder struct {
	mem memory.Allocator
}

// NewRecordBatchBuilder creates a builder that allocates from mem.
func NewRecordBatchBuilder(mem memory.Allocator) *RecordBatchBuilder {
	return &RecordBatchBuilder{mem: mem}
}

// MatrixSchema is the schema of a matrix with cols columns.
func MatrixSchema(cols int) *arrow.Schema {
	fields := make([]arrow.Field, cols)
	for j := range fields {
		fields[j] = arrow.Field{Name: fmt.Sprintf("c%d", j), Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.NewSchema(fields, nil)
}

// BuildRecordBatch converts a matrix view into a record batch. The caller
// releases it.
func (b *RecordBatchBuilder) BuildRecordBatch(m nd.View[float64]) arrow.RecordBatch {
	if m.Rank() != 2 {
		panic(layout.Preconditionf("codec.BuildRecordBatch", "need a matrix, got rank %d", m.Rank()))
	}
	rows, cols := m.Rows(), m.Cols()
	fb := array.NewFloat64Builder(b.mem)
	defer fb.Release()

	columns := make([]arrow.Array, cols)
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()
	vals := make([]float64, rows)
	for j := 0; j < cols; j++ {
		col := m.Col(j)
		if col.IsContiguous() {
			copy(vals, col.Data()[:rows])
		} else {
			for i := range vals {
				vals[i] = col.At(i)
			}
		}
		fb.AppendValues(vals, nil)
		columns[j] = fb.NewArray()
	}
	return array.NewRecordBatch(MatrixSchema(cols), columns, int64(rows))
}

// appendRows appends the rows of rec to dst, a row-major buffer of width cols,
// and returns the extended buffer.
func appendRows(dst []float64, rec arrow.RecordBatch) ([]float64, error) {
	rows, cols := int(rec.NumRows()), int(rec.NumCols())
	base := len(dst)
	dst = append(dst, make([]float64, rows*cols)...)
	for j := 0; j < cols; j++ {
		col, ok := rec.Column(j).(*array.Float64)
		if !ok {
			return nil, malformedf("column %q is %s, want float64", rec.ColumnName(j), rec.Column(j).DataType())
		}
		if col.NullN() > 0 {
			return nil, malformedf("column %q has %d nulls", rec.ColumnName(j), col.NullN())
		}
		for i, v := range col.Float64Values() {
			dst[base+i*cols+j] = v
		}
	}
	return dst, nil
}

// Matrix copies a record batch into a new array in the given order.
func (b *RecordBatchBuilder) Matrix(rec arrow.RecordBatch, order layout.Order) (*nd.Array[float64], error) {
	data, err := appendRows(nil, rec)
	if err != nil {
		return nil, err
	}
	rm := nd.FromSlice(data, layout.RowMajor, int(rec.NumRows()), int(rec.NumCols()))
	if order == layout.RowMajor {
		return rm, nil
	}
	return nd.CopyOf(rm.View(), order), nil
}

// WriteIPC writes m to w as an Arrow IPC stream holding a single batch.
func (b *RecordBatchBuilder) WriteIPC(w io.Writer, m nd.View[float64]) error {
	rec := b.BuildRecordBatch(m)
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(b.mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return fmt.Errorf("codec: arrow write: %w", err)
	}
	return wr.Close()
}

// ReadIPC reads an Arrow IPC stream and stacks all of its batches into one
// matrix. Every batch must share the stream schema of Float64 columns.
func (b *RecordBatchBuilder) ReadIPC(r io.Reader, order layout.Order) (*nd.Array[float64], error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(b.mem))
	if err != nil {
		return nil, malformedf("arrow stream: %v", err)
	}
	defer reader.Release()

	cols := len(reader.Schema().Fields())
	var data []float64
	for reader.Next() {
		data, err = appendRows(data, reader.Record())
		if err != nil {
			return nil, err
		}
	}
	if err := reader.Err(); err != nil {
		return nil, malformedf("arrow stream: %v", err)
	}
	rows := 0
	if cols > 0 {
		rows = len(data) / cols
	}
	rm := nd.FromSlice(data, layout.RowMajor, rows, cols)
	if order == layout.RowMajor {
		return rm, nil
	}
	return nd.CopyOf(rm.View(), order), nil
}
