// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestAddAndWrite(t *testing.T) {
	c := qt.New(t)
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)

	c.Assert(builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb")), qt.IsNil)
	c.Assert(builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")), qt.IsNil)
	c.Assert(builder.Add("test", strings.NewReader("again")), qt.ErrorMatches, "kar: test added twice")
	c.Assert(builder.Len(), qt.Equals, 2)

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(num, qt.Equals, int64(buf.Len()))
	c.Assert(buf.Bytes()[:MagicLength], qt.DeepEquals, magic[:])

	ar, err := Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)
	first, _ := ar.header.Entry("test")
	second, _ := ar.header.Entry("test2")
	c.Assert(first.Offset, qt.Equals, int64(0))
	c.Assert(second.Offset, qt.Equals, first.CompressedSize)

	c.Assert(builder.Close(), qt.IsNil)
	_, err = os.Stat(builder.tempDir)
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestSizeEncoding(t *testing.T) {
	c := qt.New(t)
	c.Assert(binaryToInt64(int64ToBinary(123456)), qt.Equals, int64(123456))
	c.Assert(int64ToBinary(1), qt.HasLen, HeaderSizeNumberLength)
}
