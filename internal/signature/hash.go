package signature

import (
	"unicode"
	"unicode/utf8"
)

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// Hash 不区分大小写的 32 位 FNV-1a
//
// 每个字符先转为小写再按 UTF-8 字节折叠进哈希，目录文件依赖这一算法。
func Hash(name string) uint32 {
	h := fnvOffset32
	var buf [utf8.UTFMax]byte
	for _, r := range name {
		r = unicode.ToLower(r)
		if r < utf8.RuneSelf {
			h ^= uint32(r)
			h *= fnvPrime32
			continue
		}
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			h ^= uint32(b)
			h *= fnvPrime32
		}
	}
	return h
}
