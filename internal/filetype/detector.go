package filetype

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// sniffLen is how many leading bytes are inspected. mimetype reads at most
// this much by default.
const sniffLen = 3072

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the type of a file on disk.
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return d.info(mtype, filePath), nil
}

// DetectReader sniffs the head of r and returns the detected type together
// with a reader that yields the full, unconsumed stream.
func (d *Detector) DetectReader(r io.Reader, name string) (*FileTypeInfo, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("failed to read file header: %w", err)
	}
	head = head[:n]
	info := d.info(mimetype.Detect(head), name)
	return info, io.MultiReader(bytes.NewReader(head), r), nil
}

func (d *Detector) info(mtype *mimetype.MIME, name string) *FileTypeInfo {
	mimeType := mtype.String()
	extension := mtype.Extension()

	// Office formats are ZIP containers; trust the extension for those.
	if mtype.Is("application/zip") {
		switch ext := strings.ToLower(filepath.Ext(name)); ext {
		case ".docx":
			mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
			extension = ext
		case ".pptx":
			mimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
			extension = ext
		}
	}

	// mimetype appends parameters such as "; charset=utf-8"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", name).Msg("detected file type")

	info := &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: extension,
	}
	classify(info)
	return info
}

// classify decides whether the backend can ingest the type.
func classify(info *FileTypeInfo) {
	switch mt := info.MIMEType; {
	case mt == "application/pdf":
		info.IsPDF = true
		info.Supported = true
		info.Description = "PDF document"
	case mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		info.Supported = true
		info.Description = "Microsoft Word document"
	case mt == "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		info.Supported = true
		info.Description = "Microsoft PowerPoint presentation"
	case strings.HasPrefix(mt, "text/"):
		info.Supported = true
		info.Description = "Plain text file"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", mt)
	}
}
