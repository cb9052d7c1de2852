package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// File is the file-like input accepted by every Backend.
type File interface {
	io.Reader
	Name() string
	Size() int64
}

// LocalFile is a File backed by a file on disk. Callers must Close it.
type LocalFile struct {
	f    *os.File
	size int64
}

// Open opens path for upload.
func Open(path string) (*LocalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open upload: %s is a directory", path)
	}
	return &LocalFile{f: f, size: st.Size()}, nil
}

func (l *LocalFile) Read(p []byte) (int, error) { return l.f.Read(p) }
func (l *LocalFile) Name() string               { return filepath.Base(l.f.Name()) }
func (l *LocalFile) Size() int64                { return l.size }
func (l *LocalFile) Close() error               { return l.f.Close() }

type multipartFile struct {
	multipart.File
	hdr *multipart.FileHeader
}

// FromMultipart adapts a form file part received by an HTTP handler.
func FromMultipart(f multipart.File, hdr *multipart.FileHeader) File {
	if f == nil || hdr == nil {
		return nil
	}
	return &multipartFile{File: f, hdr: hdr}
}

func (m *multipartFile) Name() string { return m.hdr.Filename }
func (m *multipartFile) Size() int64  { return m.hdr.Size }

// BytesFile is an in-memory File.
type BytesFile struct {
	*bytes.Reader
	name string
}

func NewBytesFile(name string, data []byte) *BytesFile {
	return &BytesFile{Reader: bytes.NewReader(data), name: name}
}

func (b *BytesFile) Name() string { return b.name }
