package i18n

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/atomic"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// EnvLang 指定诊断语言的环境变量
const EnvLang = "PCODE_LANG"

var current = atomic.NewString(string(LangEnglish))

// SetLanguage 设置诊断与语法错误使用的语言
func SetLanguage(lang Language) {
	current.Store(string(lang))
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	return Language(current.Load())
}

// Parse 识别语言标记，接受 zh、zh-CN、zh_CN.UTF-8、chinese 这类写法
func Parse(tag string) (Language, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	switch {
	case tag == "":
		return LangEnglish, false
	case tag == "chinese" || tag == "zh" || strings.HasPrefix(tag, "zh-") || strings.HasPrefix(tag, "zh_"):
		return LangChinese, true
	case tag == "english" || tag == "en" || tag == "c" || tag == "posix" ||
		strings.HasPrefix(tag, "en-") || strings.HasPrefix(tag, "en_"):
		return LangEnglish, true
	}
	return LangEnglish, false
}

// FromEnv PCODE_LANG 指定的语言，未设置或无法识别时为英文
func FromEnv() Language {
	lang, _ := Parse(os.Getenv(EnvLang))
	return lang
}

// T 翻译消息；当前语言缺少该条目时回退到英文，都没有则返回 ID
func T(msgID string, args ...interface{}) string {
	msg, ok := messagesEN[msgID]
	if GetLanguage() == LangChinese {
		if zh, found := messagesZH[msgID]; found {
			msg, ok = zh, true
		}
	}
	if !ok {
		return msgID
	}
	// 无参数的消息也可能含有 %% 转义
	if len(args) == 0 && !strings.Contains(msg, "%%") {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
