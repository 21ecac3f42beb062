package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxLineSize bounds one record. Longer lines are consumed and counted as skipped.
const maxLineSize = 4 * 1024 * 1024

// FileSource implements Source for the files of a single stream. Files are
// read in the order given; .gz and .zst files are decompressed on the fly.
//
// A file that cannot be opened or is truncated does not stop the source:
// the failure is recorded in FileErrors and reading continues with the next
// file. Next only returns context errors and io.EOF.
type FileSource struct {
	stream Stream
	files  []string
	dec    decoder

	current       io.Closer
	currentReader *bufio.Reader
	currentSource string
	currentLine   int
	fileIndex     int
	lineBuf       []byte

	records  int
	skipped  int
	fileErrs []error
}

// NewFileSource creates a Source that decodes the given files as records of stream.
func NewFileSource(stream Stream, files []string) *FileSource {
	return &FileSource{
		stream:    stream,
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next decoded record.
func (s *FileSource) Next(ctx context.Context) (Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				if err == io.EOF {
					return nil, io.EOF
				}
				s.fileErrs = append(s.fileErrs, err)
				continue
			}
		}

		raw, tooLong, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				s.fileErrs = append(s.fileErrs, fmt.Errorf("reading %s: %w", s.currentSource, err))
			}
			if err := s.closeCurrentFile(); err != nil {
				s.fileErrs = append(s.fileErrs, err)
			}
			continue
		}

		s.currentLine++
		if tooLong {
			s.skipped++
			continue
		}
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}

		rec, err := s.dec.decode(s.stream, line)
		if err != nil {
			s.skipped++
			continue
		}
		h := rec.Meta()
		h.Source = s.currentSource
		h.LineNum = s.currentLine
		s.records++
		return rec, nil
	}
}

// readLine returns the next line of the current file. A line longer than
// maxLineSize is read to its end and reported as tooLong with no content.
// io.EOF is returned only when no bytes remain.
func (s *FileSource) readLine() (line []byte, tooLong bool, err error) {
	s.lineBuf = s.lineBuf[:0]
	read := false
	for {
		chunk, err := s.currentReader.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if !tooLong {
			if len(s.lineBuf)+len(chunk) > maxLineSize {
				tooLong = true
				s.lineBuf = s.lineBuf[:0]
			} else {
				s.lineBuf = append(s.lineBuf, chunk...)
			}
		}

		switch {
		case err == nil:
			return s.lineBuf, tooLong, nil
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && read:
			return s.lineBuf, tooLong, nil
		default:
			return nil, false, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

// Stats returns what has been read so far.
func (s *FileSource) Stats() *StreamStats {
	files := make([]string, len(s.files))
	copy(files, s.files)
	return &StreamStats{Files: files, Records: s.records, Skipped: s.skipped}
}

// FileErrors returns the per-file failures met so far.
func (s *FileSource) FileErrors() []error {
	return s.fileErrs
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	rc, err := openLogFile(path)
	if err != nil {
		return err
	}

	s.current = rc
	s.currentReader = bufio.NewReaderSize(rc, 64*1024)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	s.currentReader = nil
	if s.current != nil {
		err := s.current.Close()
		s.current = nil
		return err
	}
	return nil
}

// openLogFile opens path, wrapping it in a decompressor when the name says so.
func openLogFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from the configured log directory
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening gzip log %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening zstd log %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	default:
		return f, nil
	}
}

// stackedCloser closes a decompressor and then its underlying file.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *stackedCloser) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
