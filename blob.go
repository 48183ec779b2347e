package filterkit

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// BlobType blob content type
type BlobType int

const (
	BlobTypeUnknown BlobType = iota
	BlobTypeEmpty
	BlobTypeJSON
	BlobTypeJPEG
	BlobTypePNG
	BlobTypeGIF
	BlobTypeWEBP
	BlobTypeAVIF
	BlobTypeHEIF
	BlobTypeTIFF
	BlobTypeBMP
	BlobTypeCube
)

// Blob lazily loaded bytes with sniffed content type
type Blob struct {
	newReader   func() (r io.ReadCloser, size int64, err error)
	path        string
	size        int64
	buf         []byte
	sniffBuf    []byte
	once        sync.Once
	onceReadAll sync.Once
	err         error
	blobType    BlobType
	contentType string

	Stat *Stat
}

// Stat blob stat attributes
type Stat struct {
	ModifiedTime time.Time
	ETag         string
	Size         int64
}

// NewBlob creates Blob from reader func, which may be called more than once
func NewBlob(newReader func() (reader io.ReadCloser, size int64, err error)) *Blob {
	return &Blob{newReader: newReader}
}

// NewBlobFromFile creates Blob from file path
func NewBlobFromFile(filepath string, checks ...func(os.FileInfo) error) *Blob {
	stat, err := os.Stat(filepath)
	if os.IsNotExist(err) {
		err = ErrNotFound
	}
	if err == nil {
		for _, check := range checks {
			if err = check(stat); err != nil {
				break
			}
		}
	}
	return &Blob{
		err:  err,
		path: filepath,
		newReader: func() (io.ReadCloser, int64, error) {
			if err != nil {
				return nil, 0, err
			}
			reader, err := os.Open(filepath)
			return reader, stat.Size(), err
		},
	}
}

// NewBlobFromBytes creates Blob from bytes
func NewBlobFromBytes(buf []byte) *Blob {
	size := int64(len(buf))
	return &Blob{
		buf:  buf,
		size: size,
		newReader: func() (io.ReadCloser, int64, error) {
			return io.NopCloser(bytes.NewReader(buf)), size, nil
		},
	}
}

// NewEmptyBlob creates empty Blob
func NewEmptyBlob() *Blob {
	return &Blob{blobType: BlobTypeEmpty}
}

var jpegHeader = []byte("\xFF\xD8\xFF")
var gifHeader = []byte("\x47\x49\x46")
var webpHeader = []byte("\x57\x45\x42\x50")
var pngHeader = []byte("\x89\x50\x4E\x47")
var tifII = []byte("\x49\x49\x2A\x00")
var tifMM = []byte("\x4D\x4D\x00\x2A")
var bmpHeader = []byte("BM")
var ftyp = []byte("ftyp")
var avif = []byte("avif")
var heic = []byte("heic")
var mif1 = []byte("mif1")
var msf1 = []byte("msf1")
var cubeTitle = []byte("TITLE")
var cubeSize = []byte("LUT_3D_SIZE")

func (b *Blob) init() {
	b.once.Do(func() {
		if b.err != nil || b.blobType == BlobTypeEmpty {
			return
		}
		if b.newReader == nil {
			b.blobType = BlobTypeEmpty
			return
		}
		if b.buf == nil {
			reader, size, err := b.newReader()
			if err != nil {
				b.err = err
				return
			}
			if size > 0 {
				b.size = size
			}
			b.sniffBuf = make([]byte, 512)
			n, err := io.ReadFull(reader, b.sniffBuf)
			_ = reader.Close()
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
				b.err = err
				return
			}
			b.sniffBuf = b.sniffBuf[:n]
		} else if len(b.buf) > 512 {
			b.sniffBuf = b.buf[:512]
		} else {
			b.sniffBuf = b.buf
		}
		b.blobType = sniffBlobType(b.sniffBuf)
	})
}

func sniffBlobType(buf []byte) BlobType {
	trimmed := bytes.TrimSpace(buf)
	switch {
	case len(buf) == 0:
		return BlobTypeEmpty
	case bytes.HasPrefix(buf, jpegHeader):
		return BlobTypeJPEG
	case bytes.HasPrefix(buf, pngHeader):
		return BlobTypePNG
	case bytes.HasPrefix(buf, gifHeader):
		return BlobTypeGIF
	case len(buf) >= 12 && bytes.Equal(buf[8:12], webpHeader):
		return BlobTypeWEBP
	case len(buf) >= 12 && bytes.Equal(buf[4:8], ftyp) && bytes.Equal(buf[8:12], avif):
		return BlobTypeAVIF
	case len(buf) >= 12 && bytes.Equal(buf[4:8], ftyp) &&
		(bytes.Equal(buf[8:12], heic) || bytes.Equal(buf[8:12], mif1) || bytes.Equal(buf[8:12], msf1)):
		return BlobTypeHEIF
	case bytes.HasPrefix(buf, tifII) || bytes.HasPrefix(buf, tifMM):
		return BlobTypeTIFF
	case len(buf) > 14 && bytes.HasPrefix(buf, bmpHeader):
		return BlobTypeBMP
	case bytes.HasPrefix(trimmed, cubeTitle) || bytes.Contains(buf, cubeSize):
		return BlobTypeCube
	case bytes.HasPrefix(trimmed, []byte("{")) && isJSONObject(trimmed):
		return BlobTypeJSON
	}
	return BlobTypeUnknown
}

func isJSONObject(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte("{\"")) || bytes.Equal(buf, []byte("{}"))
}

// IsEmpty check if blob is empty
func (b *Blob) IsEmpty() bool {
	b.init()
	return b.blobType == BlobTypeEmpty
}

// SupportsAnimation check if blob supports animation
func (b *Blob) SupportsAnimation() bool {
	b.init()
	return b.blobType == BlobTypeGIF || b.blobType == BlobTypeWEBP
}

// BlobType returns sniffed blob type
func (b *Blob) BlobType() BlobType {
	b.init()
	return b.blobType
}

// Sniff returns the leading bytes used for type detection
func (b *Blob) Sniff() []byte {
	b.init()
	return b.sniffBuf
}

// Size returns blob size if known
func (b *Blob) Size() int64 {
	b.init()
	return b.size
}

// FilePath returns file path if blob is backed by a file
func (b *Blob) FilePath() string {
	return b.path
}

// SetContentType overrides the sniffed content type
func (b *Blob) SetContentType(contentType string) {
	b.contentType = contentType
}

// ContentType returns content type of the blob
func (b *Blob) ContentType() string {
	if b.contentType != "" {
		return b.contentType
	}
	b.init()
	switch b.blobType {
	case BlobTypeJSON:
		return "application/json"
	case BlobTypeJPEG:
		return "image/jpeg"
	case BlobTypePNG:
		return "image/png"
	case BlobTypeGIF:
		return "image/gif"
	case BlobTypeWEBP:
		return "image/webp"
	case BlobTypeAVIF:
		return "image/avif"
	case BlobTypeHEIF:
		return "image/heif"
	case BlobTypeTIFF:
		return "image/tiff"
	case BlobTypeBMP:
		return "image/bmp"
	case BlobTypeCube:
		return "text/plain"
	}
	if len(b.sniffBuf) > 0 {
		return http.DetectContentType(b.sniffBuf)
	}
	return "application/octet-stream"
}

// NewReader creates new reader of the blob content
func (b *Blob) NewReader() (reader io.ReadCloser, size int64, err error) {
	b.init()
	if b.err != nil {
		return nil, 0, b.err
	}
	if b.blobType == BlobTypeEmpty {
		return io.NopCloser(bytes.NewReader(nil)), 0, nil
	}
	if b.buf != nil {
		return io.NopCloser(bytes.NewReader(b.buf)), int64(len(b.buf)), nil
	}
	return b.newReader()
}

// ReadAll reads all bytes of the blob, once
func (b *Blob) ReadAll() ([]byte, error) {
	b.init()
	b.onceReadAll.Do(func() {
		if b.err != nil || b.buf != nil || b.blobType == BlobTypeEmpty {
			return
		}
		reader, _, err := b.newReader()
		if err != nil {
			b.err = err
			return
		}
		defer func() {
			_ = reader.Close()
		}()
		b.buf, b.err = io.ReadAll(reader)
		if b.err == nil {
			b.size = int64(len(b.buf))
		}
	})
	if b.blobType == BlobTypeEmpty {
		return []byte{}, b.err
	}
	return b.buf, b.err
}

// Err returns the error occurred while loading the blob
func (b *Blob) Err() error {
	b.init()
	return b.err
}

// IsBlobEmpty reports whether blob is nil or empty
func IsBlobEmpty(blob *Blob) bool {
	return blob == nil || blob.IsEmpty()
}
