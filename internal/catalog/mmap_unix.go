//go:build unix

package catalog

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile 只读映射整个文件
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := fi.Size()
	if size == 0 || size != int64(int(size)) {
		data, err := os.ReadFile(path)
		return data, nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		// 部分文件系统不支持 mmap
		data, err := os.ReadFile(path)
		return data, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
