package catalog

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/tangzhangming/pcode/internal/signature"
)

// Writer 目录写入器，一次写入、多次读取
type Writer struct {
	buckets  int
	useNames bool
	entries  []entry
	seen     map[entryKey]bool
}

type entry struct {
	key  string
	kind RecordKind
	fn   *signature.FunctionInfo
	prop *signature.PropertyInfo
	obj  *signature.BuiltinObjectInfo
}

type entryKey struct {
	key  string
	kind RecordKind
}

// Option 写入选项
type Option func(*Writer)

// WithNameTable 使用共享名称表对参数名去重
func WithNameTable() Option {
	return func(w *Writer) { w.useNames = true }
}

// WithBuckets 指定哈希桶数量
func WithBuckets(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.buckets = n
		}
	}
}

// NewWriter 创建写入器。未指定 WithNameTable 时写出内联名称的旧格式。
func NewWriter(opts ...Option) *Writer {
	w := &Writer{buckets: DefaultBuckets, seen: make(map[entryKey]bool)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) add(e entry) error {
	if e.key == "" {
		return fmt.Errorf("catalog: empty %s name", e.kind)
	}
	k := entryKey{strings.ToLower(e.key), e.kind}
	if w.seen[k] {
		return fmt.Errorf("%w: %s %s", ErrDuplicate, e.kind, e.key)
	}
	w.seen[k] = true
	w.entries = append(w.entries, e)
	return nil
}

// AddFunction 添加内置函数
func (w *Writer) AddFunction(fn *signature.FunctionInfo) error {
	return w.add(entry{key: fn.Name, kind: RecordFunction, fn: fn})
}

// AddProperty 添加系统变量或全局属性
func (w *Writer) AddProperty(prop *signature.PropertyInfo) error {
	return w.add(entry{key: prop.Name, kind: RecordProperty, prop: prop})
}

// AddObject 添加内置对象
func (w *Writer) AddObject(obj *signature.BuiltinObjectInfo) error {
	return w.add(entry{key: obj.Name, kind: RecordObject, obj: obj})
}

// Len 已添加的记录数
func (w *Writer) Len() int {
	return len(w.entries)
}

// Bytes 编码整个目录文件
func (w *Writer) Bytes() ([]byte, error) {
	enc := newEncoder(!w.useNames)
	heads := make([]uint32, w.buckets)
	tails := make([]int, w.buckets)
	for i := range tails {
		tails[i] = -1
	}

	var kind Kind
	for _, e := range w.entries {
		h := signature.Hash(e.key)
		b := int(h % uint32(w.buckets))
		pos := enc.buf.Len()

		// 同桶记录串成链表，偏移 + 1 以便 0 表示链尾
		if tails[b] >= 0 {
			binary.BigEndian.PutUint32(enc.buf.Bytes()[tails[b]:], uint32(pos+1))
		} else {
			heads[b] = uint32(pos + 1)
		}
		tails[b] = pos

		enc.u32(0)
		enc.u32(h)
		enc.str(e.key)
		enc.u8(uint8(e.kind))

		var err error
		switch e.kind {
		case RecordFunction:
			err = enc.function(e.fn)
		case RecordProperty:
			err = enc.property(e.prop)
		case RecordObject:
			err = enc.object(e.obj)
		}
		if err != nil {
			return nil, err
		}
		kind |= kindBit(e.kind)
	}

	out := newEncoder(true)
	out.u32(Magic)
	out.u8(MajorVersion)
	out.u8(MinorVersion)
	out.u8(uint8(kind))
	var flags uint8
	if w.useNames {
		flags |= FlagNameTable
	}
	out.u8(flags)
	out.u32(uint32(len(w.entries)))
	out.u32(uint32(w.buckets))

	if w.useNames {
		out.u32(uint32(len(enc.names)))
		for _, name := range enc.names {
			out.str(name)
		}
	}
	for _, off := range heads {
		out.u32(off)
	}
	out.buf.Write(enc.buf.Bytes())
	return out.buf.Bytes(), nil
}

// WriteTo 实现 io.WriterTo
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(data)
	return int64(n), err
}
