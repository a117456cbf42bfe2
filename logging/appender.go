package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the format used for the time column of every appender.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender writes tab delimited log lines to an `io.Writer`.
type ConsoleAppender struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() *ConsoleAppender {
	return &ConsoleAppender{writer: os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the input writer.
func NewWriterAppender(writer io.Writer) *ConsoleAppender {
	return &ConsoleAppender{writer: writer}
}

// FileAppender is a ConsoleAppender over a size-rotated log file.
type FileAppender struct {
	*ConsoleAppender
	logger *lumberjack.Logger
}

// NewFileAppender returns an appender writing to `filename`. The file is rotated once it grows
// past `maxSizeMB` megabytes and at most `maxBackups` rotated files are kept.
func NewFileAppender(filename string, maxSizeMB, maxBackups int) *FileAppender {
	lj := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	return &FileAppender{ConsoleAppender: NewWriterAppender(lj), logger: lj}
}

// Close closes the underlying log file.
func (fa *FileAppender) Close() error {
	return fa.logger.Close()
}

// Write outputs the log entry to the underlying writer.
func (ca *ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if _, writeErr := fmt.Fprintln(ca.writer, line); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync flushes the writer when it supports it.
func (ca *ConsoleAppender) Sync() error {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if syncer, ok := ca.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

// formatEntry renders `<time>\t<LEVEL>\t<logger>\t<file:line>\t<message>\t<json fields>`. Empty
// columns are dropped.
func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	const maxLength = 6
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))
	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	if entry.LoggerName != "" {
		toPrint = append(toPrint, entry.LoggerName)
	}
	if entry.Caller.Defined {
		toPrint = append(toPrint, callerToString(&entry.Caller))
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		return strings.Join(toPrint, "\t"), nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. As opposed to the
	// random iteration order of a map. Call it with an empty Entry object such that only the fields
	// become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(toPrint, "\t"), err
	}
	toPrint = append(toPrint, buf.String())
	return strings.Join(toPrint, "\t"), nil
}

// callerToString returns e.g. "evaluation/inference.go:120".
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}
