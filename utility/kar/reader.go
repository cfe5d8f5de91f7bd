// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	var head [MagicLength + HeaderSizeNumberLength]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return nil, ErrFileFormat
	}
	if string(head[:MagicLength]) != string(magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize := binaryToInt64(head[MagicLength:])
	if headerSize <= 0 || headerSize > 1<<30 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, int64(len(head))); err != nil {
		return nil, ErrFileFormat
	}

	ar := &Archive{
		reader:     r,
		dataOffset: int64(len(head)) + headerSize,
	}
	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
// It satisfies packd.Finder.
type Archive struct {
	reader     io.ReaderAt
	dataOffset int64
	header     Header
}

// Header returns the archive header including its index
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in index order
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Entry(name)
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry: entry,
		lz4:   lz4.NewReader(section),
	}, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", name)
	}
	if int64(len(data)) != r.entry.Size {
		return nil, errors.Wrapf(ErrFileFormat, "%s: %d bytes, index says %d", name, len(data), r.entry.Size)
	}
	return data, nil
}

// Find implements packd.Finder
func (a *Archive) Find(name string) ([]byte, error) {
	return a.ReadAll(name)
}

// FindString implements packd.Finder
func (a *Archive) FindString(name string) (string, error) {
	data, err := a.ReadAll(name)
	return string(data), err
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry IndexEntry
	lz4   *lz4.Reader
}

// Size returns the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.lz4.Read(p)
}
