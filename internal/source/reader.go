// Package source 负责读取日志文本，支持普通文件、标准输入和压缩文件。
package source

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
	"github.com/oriys/tracescope/internal/domain"
)

// Stdin 表示从标准输入读取
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Encoding 是检测到的输入编码。
type Encoding string

const (
	EncodingPlain Encoding = "plain"
	EncodingGzip  Encoding = "gzip"
	EncodingZstd  Encoding = "zstd"
)

// Document 是读取到的日志文本及其来源。
type Document struct {
	Path     string
	Encoding Encoding
	Text     string
	Bytes    int64
}

// Read 读取 path 指向的日志，"-" 表示标准输入。
// 按魔数识别 gzip / zstd 压缩，失败时返回包装了 domain.ErrSourceUnavailable 的错误。
func Read(ctx context.Context, path string) (*Document, error) {
	var r io.Reader
	if path == Stdin {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		defer f.Close()
		r = f
	}
	doc, err := ReadFrom(ctx, r)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// ReadFrom 从任意 reader 读取日志文本。
func ReadFrom(ctx context.Context, r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	enc := detect(head)
	var body io.Reader = br
	switch enc {
	case EncodingGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", domain.ErrSourceUnavailable, err)
		}
		defer zr.Close()
		body = zr
	case EncodingZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", domain.ErrSourceUnavailable, err)
		}
		defer zr.Close()
		body = zr
	}

	var sb strings.Builder
	n, err := io.Copy(&sb, &ctxReader{ctx: ctx, r: body})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return &Document{Encoding: enc, Text: sb.String(), Bytes: n}, nil
}

func detect(head []byte) Encoding {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return EncodingGzip
	case bytes.HasPrefix(head, zstdMagic):
		return EncodingZstd
	default:
		return EncodingPlain
	}
}

// ctxReader 在每次读取前检查 ctx 是否已取消
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
