package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/erp/connector/internal/domain/shared"
	"go.uber.org/zap"
)

// Writer writes delimited files for the ERP
type Writer struct {
	comma  rune
	logger *zap.Logger
	create func(path string) (io.WriteCloser, error)
}

// WriterOption is a functional option for Writer configuration
type WriterOption func(*Writer)

// WithSeparator sets the field separator (default is ';')
func WithSeparator(sep rune) WriterOption {
	return func(w *Writer) {
		w.comma = sep
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a new Writer
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		comma:  ';',
		logger: zap.NewNop(),
		create: func(path string) (io.WriteCloser, error) { return os.Create(path) },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFile creates or truncates path and writes header (when non-nil)
// followed by rows. Fields containing the separator, a quote or a line break
// are quoted. It returns the absolute path of the written file.
func (w *Writer) WriteFile(path string, header []string, rows [][]string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", shared.NewIOError(fmt.Sprintf("cannot resolve export file path %s", path), err)
	}

	f, err := w.create(absPath)
	if err != nil {
		return "", shared.NewIOError(fmt.Sprintf("cannot create export file %s", absPath), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = shared.NewIOError(fmt.Sprintf("cannot close export file %s", absPath), cerr)
			absPath = ""
		}
	}()

	cw := csv.NewWriter(f)
	cw.Comma = w.comma

	if header != nil {
		if err := cw.Write(header); err != nil {
			return "", shared.NewIOError(fmt.Sprintf("cannot write header to %s", absPath), err)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", shared.NewIOError(fmt.Sprintf("cannot write rows to %s", absPath), err)
	}

	w.logger.Debug("Export file written",
		zap.String("path", absPath),
		zap.Int("rows", len(rows)),
	)

	return absPath, nil
}
