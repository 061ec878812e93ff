package catalog

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tangzhangming/pcode/internal/signature"
)

// Reader 目录读取器
//
// 加载后只读，可并发查询。查询结果只由底层缓冲区决定，
// 解码缓存仅用于避免重复解码，返回的对象不应被修改。
type Reader struct {
	data     []byte
	kind     Kind
	count    uint32
	buckets  uint32
	bucketAt int
	dataAt   int
	names    []string
	inline   bool
	unmap    func() error

	functions  sync.Map // 小写名 -> *signature.FunctionInfo
	properties sync.Map // 小写名 -> *signature.PropertyInfo
	objects    sync.Map // 小写名 -> *signature.BuiltinObjectInfo
}

// NewReader 从内存缓冲区创建读取器，缓冲区在读取器生命周期内不得修改
func NewReader(data []byte) (*Reader, error) {
	if len(data) < HeaderSize {
		return nil, &FormatError{Msg: "file too small"}
	}
	if binary.BigEndian.Uint32(data[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	major, minor := data[4], data[5]
	if major != MajorVersion {
		return nil, &FormatError{Msg: fmt.Sprintf("incompatible version: file is v%d.%d, reader is v%d.%d",
			major, minor, MajorVersion, MinorVersion)}
	}

	r := &Reader{
		data:    data,
		kind:    Kind(data[6]),
		count:   binary.BigEndian.Uint32(data[8:12]),
		buckets: binary.BigEndian.Uint32(data[12:16]),
	}
	if r.buckets == 0 {
		return nil, &FormatError{Offset: 12, Msg: "zero bucket count"}
	}

	flags := data[7]
	pos := HeaderSize
	if flags&FlagNameTable != 0 {
		names, end, err := readNameTable(data, pos)
		if err != nil {
			return nil, err
		}
		r.names, pos = names, end
	} else if names, end, ok := probeNameTable(data, pos, r.buckets); ok {
		// 早期写入器输出了名称表却没有设置标志位
		r.names, pos = names, end
	} else {
		r.inline = true
	}

	r.bucketAt = pos
	r.dataAt = pos + int(r.buckets)*4
	if r.dataAt > len(data) {
		return nil, &FormatError{Offset: pos, Msg: "bucket section truncated"}
	}
	return r, nil
}

func readNameTable(data []byte, pos int) ([]string, int, error) {
	d := &decoder{data: data, pos: pos}
	n, err := d.u32()
	if err != nil {
		return nil, 0, err
	}
	if uint64(n) > uint64(len(data)-d.pos) {
		return nil, 0, d.fail("name table count %d out of range", n)
	}
	names := make([]string, n)
	for i := range names {
		if names[i], err = d.str(); err != nil {
			return nil, 0, err
		}
	}
	return names, d.pos, nil
}

// probeNameTable 判断文件头之后是否跟着一个可信的名称表
//
// 旧格式在文件头之后直接是桶偏移，其高位字节几乎总是 0，
// 按名称表解析会得到空字符串，因此要求计数非零且每个名称非空。
func probeNameTable(data []byte, pos int, buckets uint32) ([]string, int, bool) {
	if pos+4 > len(data) {
		return nil, 0, false
	}
	n := binary.BigEndian.Uint32(data[pos:])
	if n == 0 || uint64(n) > uint64(len(data)-pos-4) {
		return nil, 0, false
	}
	d := &decoder{data: data, pos: pos + 4}
	names := make([]string, 0, min(int(n), 1024))
	for i := uint32(0); i < n; i++ {
		s, err := d.str()
		if err != nil || s == "" || !utf8.ValidString(s) {
			return nil, 0, false
		}
		names = append(names, s)
	}
	if uint64(d.pos)+uint64(buckets)*4 > uint64(len(data)) {
		return nil, 0, false
	}
	return names, d.pos, true
}

// Close 释放映射的文件，之后不得再查询
func (r *Reader) Close() error {
	if r.unmap == nil {
		return nil
	}
	unmap := r.unmap
	r.unmap = nil
	return unmap()
}

// Kind 文件包含的记录类型
func (r *Reader) Kind() Kind { return r.kind }

// Len 记录总数
func (r *Reader) Len() int { return int(r.count) }

// Legacy 是否为内联名称的旧格式
func (r *Reader) Legacy() bool { return r.inline }

// NameTable 共享名称表
func (r *Reader) NameTable() []string { return r.names }

// header 记录头
type header struct {
	next uint32
	hash uint32
	key  string
	kind RecordKind
}

func (r *Reader) decoderAt(off uint32) *decoder {
	return &decoder{data: r.data, pos: r.dataAt + int(off-1), names: r.names, inline: r.inline}
}

func (d *decoder) header() (header, error) {
	var h header
	var err error
	if h.next, err = d.u32(); err != nil {
		return h, err
	}
	if h.hash, err = d.u32(); err != nil {
		return h, err
	}
	if h.key, err = d.str(); err != nil {
		return h, err
	}
	k, err := d.u8()
	h.kind = RecordKind(k)
	return h, err
}

func (r *Reader) bucket(i uint32) uint32 {
	return binary.BigEndian.Uint32(r.data[r.bucketAt+int(i)*4:])
}

// find 沿桶链查找记录，返回定位在负载起点的解码器
func (r *Reader) find(name string, kind RecordKind) (*decoder, string, error) {
	h := signature.Hash(name)
	off := r.bucket(h % r.buckets)
	for steps := uint32(0); off != 0; steps++ {
		if steps > r.count {
			return nil, "", &FormatError{Msg: "bucket chain cycle"}
		}
		d := r.decoderAt(off)
		if d.pos >= len(r.data) {
			return nil, "", d.fail("record offset out of range")
		}
		rec, err := d.header()
		if err != nil {
			return nil, "", err
		}
		if rec.hash == h && rec.kind == kind && strings.EqualFold(rec.key, name) {
			return d, rec.key, nil
		}
		off = rec.next
	}
	return nil, "", nil
}

// LookupFunction 按名称查找内置函数（不区分大小写）
func (r *Reader) LookupFunction(name string) (*signature.FunctionInfo, bool) {
	key := strings.ToLower(name)
	if v, ok := r.functions.Load(key); ok {
		return v.(*signature.FunctionInfo), true
	}
	d, stored, err := r.find(name, RecordFunction)
	if err != nil || d == nil {
		return nil, false
	}
	fn, err := d.function(stored)
	if err != nil {
		return nil, false
	}
	v, _ := r.functions.LoadOrStore(key, fn)
	return v.(*signature.FunctionInfo), true
}

// LookupProperty 按名称查找系统变量（不区分大小写）
func (r *Reader) LookupProperty(name string) (*signature.PropertyInfo, bool) {
	key := strings.ToLower(name)
	if v, ok := r.properties.Load(key); ok {
		return v.(*signature.PropertyInfo), true
	}
	d, stored, err := r.find(name, RecordProperty)
	if err != nil || d == nil {
		return nil, false
	}
	prop, err := d.property(stored)
	if err != nil {
		return nil, false
	}
	v, _ := r.properties.LoadOrStore(key, prop)
	return v.(*signature.PropertyInfo), true
}

// LookupObject 按名称查找内置对象（不区分大小写）
func (r *Reader) LookupObject(name string) (*signature.BuiltinObjectInfo, bool) {
	key := strings.ToLower(name)
	if v, ok := r.objects.Load(key); ok {
		return v.(*signature.BuiltinObjectInfo), true
	}
	d, stored, err := r.find(name, RecordObject)
	if err != nil || d == nil {
		return nil, false
	}
	obj, err := d.object(stored)
	if err != nil {
		return nil, false
	}
	v, _ := r.objects.LoadOrStore(key, obj)
	return v.(*signature.BuiltinObjectInfo), true
}

// Entry 目录中的一条记录
type Entry struct {
	Name string
	Kind RecordKind
}

// Entries 遍历全部记录，按名称排序
func (r *Reader) Entries() ([]Entry, error) {
	out := make([]Entry, 0, r.count)
	for b := uint32(0); b < r.buckets; b++ {
		off := r.bucket(b)
		for steps := uint32(0); off != 0; steps++ {
			if steps > r.count {
				return nil, &FormatError{Msg: "bucket chain cycle"}
			}
			rec, err := r.decoderAt(off).header()
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Name: rec.key, Kind: rec.kind})
			off = rec.next
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

// Names 全部记录名（去重、排序）
func (r *Reader) Names() []string {
	entries, err := r.Entries()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for i, e := range entries {
		if i > 0 && entries[i-1].Name == e.Name {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// Verify 完整解码每一条记录，用于构建后的校验
func (r *Reader) Verify() error {
	entries, err := r.Entries()
	if err != nil {
		return err
	}
	if len(entries) != int(r.count) {
		return &FormatError{Msg: fmt.Sprintf("header declares %d entries, found %d", r.count, len(entries))}
	}
	for _, e := range entries {
		d, stored, err := r.find(e.Name, e.Kind)
		if err != nil {
			return err
		}
		if d == nil {
			return &FormatError{Msg: fmt.Sprintf("%s %s unreachable by hash", e.Kind, e.Name)}
		}
		switch e.Kind {
		case RecordFunction:
			_, err = d.function(stored)
		case RecordProperty:
			_, err = d.property(stored)
		case RecordObject:
			_, err = d.object(stored)
		default:
			err = d.fail("unknown record kind %d", e.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", e.Kind, e.Name, err)
		}
	}
	return nil
}
