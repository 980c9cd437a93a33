// Package eventlog escribe el log estructurado de decisiones: un objeto JSON por
// línea, append-only, con rotación por tamaño.
package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configura la rotación del fichero.
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Writer implementa ports.EventLog. Es seguro para uso concurrente.
type Writer struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// New abre (o crea) path en modo append con rotación.
func New(path string, opts Options) *Writer {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 50
	}
	return NewWriter(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	})
}

// NewWriter escribe sobre un io.WriteCloser arbitrario.
func NewWriter(out io.WriteCloser) *Writer {
	return &Writer{out: out}
}

// Append serializa ev y lo escribe como una línea completa.
func (w *Writer) Append(ev domain.Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventlog.Append: %s: %w", ev.Action, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("eventlog.Append: %w", err)
	}
	return nil
}

// Close cierra el fichero subyacente.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

// Discard es un EventLog que no escribe nada.
type Discard struct{}

// Append implementa ports.EventLog.
func (Discard) Append(domain.Event) error { return nil }
