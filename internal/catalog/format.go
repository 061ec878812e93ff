// Package catalog 内置函数、系统变量与内置对象签名的二进制目录
//
// 文件布局：
//
//	header     magic "PCAT" | major | minor | kind | flags | count u32 | buckets u32
//	names      [可选] count u32, 然后 count 个 uvarint 长度前缀的 UTF-8 字符串
//	buckets    buckets 个 u32，记录相对数据区的偏移 + 1（0 表示空桶）
//	data       链式记录 {next u32, hash u32, key, kind u8, payload}
//
// 所有整数按大端序存储。
package catalog

import (
	"errors"
	"fmt"
)

const (
	// FileExtension 目录文件后缀
	FileExtension = ".pcat"

	// Magic 文件魔数 "PCAT"
	Magic uint32 = 0x50434154

	MajorVersion uint8 = 1
	MinorVersion uint8 = 1

	// HeaderSize 文件头大小
	HeaderSize = 16

	// DefaultBuckets 默认哈希桶数量
	DefaultBuckets = 2048
)

// 文件头标志位
const (
	FlagNameTable uint8 = 1 << 0 // 存在共享名称表
)

// RecordKind 记录类型
type RecordKind uint8

const (
	RecordFunction RecordKind = 1
	RecordProperty RecordKind = 2
	RecordObject   RecordKind = 3
)

func (k RecordKind) String() string {
	switch k {
	case RecordFunction:
		return "function"
	case RecordProperty:
		return "property"
	case RecordObject:
		return "object"
	}
	return fmt.Sprintf("RecordKind(%d)", uint8(k))
}

// Kind 文件头中的内容掩码，每种记录类型占一位
type Kind uint8

const (
	KindFunctions  Kind = 1 << 0
	KindProperties Kind = 1 << 1
	KindObjects    Kind = 1 << 2
)

func kindBit(k RecordKind) Kind {
	return Kind(1) << (k - 1)
}

// Has 是否包含某种记录
func (k Kind) Has(r RecordKind) bool {
	return k&kindBit(r) != 0
}

// 记录标志位
const (
	recFlagUnionReturn    uint8 = 1 << 0
	recFlagDefaultMethod  uint8 = 1 << 1
	recFlagProperty       uint8 = 1 << 2
	recFlagOptionalReturn uint8 = 1 << 3
	recFlagVisMask        uint8 = 3 << recFlagVisShift
)

// 第 4-5 位存放可见性
const recFlagVisShift = 4

// 可变参数上限的“不限”哨兵
const unlimitedSentinel int32 = -1

// ErrBadMagic 不是目录文件
var ErrBadMagic = errors.New("catalog: bad magic number")

// ErrDuplicate 同一种记录重名
var ErrDuplicate = errors.New("catalog: duplicate entry")

// FormatError 目录文件损坏或不兼容
type FormatError struct {
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("catalog format error at offset %d: %s", e.Offset, e.Msg)
	}
	return "catalog format error: " + e.Msg
}
