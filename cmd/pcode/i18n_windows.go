//go:build windows

package main

import (
	"syscall"
	"unsafe"
)

var (
	kernel32                     = syscall.NewLazyDLL("kernel32.dll")
	procGetUserDefaultUILanguage = kernel32.NewProc("GetUserDefaultUILanguage")
	procGetUserDefaultLocaleName = kernel32.NewProc("GetUserDefaultLocaleName")
)

// detectWindowsChinese 主语言 ID（LANGID 低 10 位）为 0x04 即中文
func detectWindowsChinese() bool {
	ret, _, _ := procGetUserDefaultUILanguage.Call()
	return uint16(ret)&0x3FF == 0x04
}

// getWindowsLocale 获取 Windows 区域设置名称
func getWindowsLocale() string {
	buf := make([]uint16, 85) // LOCALE_NAME_MAX_LENGTH
	ret, _, _ := procGetUserDefaultLocaleName.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if ret == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf)
}
