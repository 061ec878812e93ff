package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/tangzhangming/pcode/internal/i18n"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// Messages 命令行消息
type Messages struct {
	// 版本信息
	VersionTitle string
	VersionDesc  string

	// 帮助信息
	HelpUsage    string
	HelpCommands string
	HelpOptions  string
	HelpExamples string

	// 命令描述
	CmdCheck         string
	CmdCatalogBuild  string
	CmdCatalogLookup string
	CmdCatalogVerify string
	CmdSourceImport  string
	CmdSourceList    string
	CmdInit          string
	CmdVersion       string
	CmdHelp          string

	// 选项
	OptJSON     string
	OptMode     string
	OptTimeout  string
	OptLenient  string
	OptVerbose  string
	OptLang     string
	OptOutput   string
	OptLegacy   string
	OptBuckets  string
	OptCatalog  string
	OptDatabase string
	OptLogLevel string
	OptDir      string

	// 错误信息
	ErrNoInput        string
	ErrReadFile       string
	ErrUnknownCmd     string
	ErrUnknownSubCmd  string
	ErrConfig         string
	ErrCatalog        string
	ErrSources        string
	ErrInvalidMode    string
	ErrLogger         string
	ErrBuildFailed    string
	ErrVerifyFailed   string
	ErrNotFound       string
	ErrNoDatabase     string
	ErrImportFailed   string
	ErrGetWorkDir     string
	ErrConfigExists   string
	ErrCreateConfig   string
	ErrCreateDir      string
	ErrWriteOutput    string
	ErrInferenceState string

	// 成功信息
	SuccessCheckOK      string
	SuccessCatalogBuilt string
	SuccessVerified     string
	SuccessImported     string
	InitCreating        string
	InitSuccess         string
	InitNextSteps       string

	// 其他
	CheckSummary string
	Function     string
	SystemVar    string
	Object       string
	Methods      string
	Properties   string
}

// 英文消息
var messagesEN = Messages{
	VersionTitle: "pcode v%s",
	VersionDesc:  "Static type inference for PeopleCode programs",

	HelpUsage:    "Usage:",
	HelpCommands: "Commands:",
	HelpOptions:  "Options:",
	HelpExamples: "Examples:",

	CmdCheck:         "Infer types and report problems",
	CmdCatalogBuild:  "Compile builtin definitions into a binary catalog",
	CmdCatalogLookup: "Print builtin signatures",
	CmdCatalogVerify: "Decode every record of a catalog file",
	CmdSourceImport:  "Import class sources into a SQLite database",
	CmdSourceList:    "List programs stored in the database",
	CmdInit:          "Create pcode.toml in the current directory",
	CmdVersion:       "Show version information",
	CmdHelp:          "Show this help message",

	OptJSON:     "Print results as JSON",
	OptMode:     "Inference mode: disabled, quick or thorough",
	OptTimeout:  "Inference time limit per file (0 = no limit)",
	OptLenient:  "Report problems involving Unknown as warnings",
	OptVerbose:  "Verbose output",
	OptLang:     "Set language (en/zh)",
	OptOutput:   "Output file path",
	OptLegacy:   "Write the legacy format with inline names",
	OptBuckets:  "Number of hash buckets (0 = automatic)",
	OptCatalog:  "Catalog file (default: configured or builtin catalog)",
	OptDatabase: "SQLite database (default: source.sqlite in pcode.toml)",
	OptLogLevel: "Log level: debug, info, warn or error",
	OptDir:      "Project directory",

	ErrNoInput:        "Error: no input file specified",
	ErrReadFile:       "Error reading file: %v",
	ErrUnknownCmd:     "Unknown command: %s",
	ErrUnknownSubCmd:  "Unknown %s command: %s",
	ErrConfig:         "Error loading configuration: %v",
	ErrCatalog:        "Error opening catalog: %v",
	ErrSources:        "Error opening sources: %v",
	ErrInvalidMode:    "Error: unknown inference mode %q",
	ErrLogger:         "Error creating logger: %v",
	ErrBuildFailed:    "Error building catalog: %v",
	ErrVerifyFailed:   "Catalog verification failed: %v",
	ErrNotFound:       "%s: not found in catalog",
	ErrNoDatabase:     "Error: no database specified (use -db or source.sqlite in pcode.toml)",
	ErrImportFailed:   "Error importing sources: %v",
	ErrGetWorkDir:     "Error getting working directory: %v",
	ErrConfigExists:   "Error: %s already exists",
	ErrCreateConfig:   "Error creating configuration: %v",
	ErrCreateDir:      "Error creating directory: %v",
	ErrWriteOutput:    "Error writing output: %v",
	ErrInferenceState: "%s: inference %s",

	SuccessCheckOK:      "✓ %s: no problems found",
	SuccessCatalogBuilt: "✓ wrote %s (%d entries, %d bytes)",
	SuccessVerified:     "✓ %s: %d entries verified",
	SuccessImported:     "✓ %d changed program(s) imported into %s",
	InitCreating:        "Creating %s",
	InitSuccess:         "✓ project initialized in %s",
	InitNextSteps:       "Next steps:",

	CheckSummary: "%d file(s) checked: %d error(s), %d warning(s)",
	Function:     "function",
	SystemVar:    "system variable",
	Object:       "object",
	Methods:      "methods",
	Properties:   "properties",
}

// 中文消息
var messagesZH = Messages{
	VersionTitle: "pcode v%s",
	VersionDesc:  "PeopleCode 程序的静态类型推断",

	HelpUsage:    "用法:",
	HelpCommands: "命令:",
	HelpOptions:  "选项:",
	HelpExamples: "示例:",

	CmdCheck:         "推断类型并报告问题",
	CmdCatalogBuild:  "把内置定义编译为二进制目录",
	CmdCatalogLookup: "打印内置签名",
	CmdCatalogVerify: "逐条解码目录文件",
	CmdSourceImport:  "把类源码导入 SQLite 数据库",
	CmdSourceList:    "列出数据库中的程序",
	CmdInit:          "在当前目录创建 pcode.toml",
	CmdVersion:       "显示版本信息",
	CmdHelp:          "显示帮助信息",

	OptJSON:     "以 JSON 输出结果",
	OptMode:     "推断模式：disabled、quick 或 thorough",
	OptTimeout:  "单个文件的推断时限（0 表示不限）",
	OptLenient:  "涉及 Unknown 的问题作为警告报告",
	OptVerbose:  "详细输出",
	OptLang:     "设置语言 (en/zh)",
	OptOutput:   "输出文件路径",
	OptLegacy:   "写出内联名称的旧格式",
	OptBuckets:  "哈希桶数量（0 表示自动）",
	OptCatalog:  "目录文件（默认使用配置或内置目录）",
	OptDatabase: "SQLite 数据库（默认取 pcode.toml 的 source.sqlite）",
	OptLogLevel: "日志级别：debug、info、warn 或 error",
	OptDir:      "项目目录",

	ErrNoInput:        "错误: 未指定输入文件",
	ErrReadFile:       "读取文件错误: %v",
	ErrUnknownCmd:     "未知命令: %s",
	ErrUnknownSubCmd:  "未知的 %s 子命令: %s",
	ErrConfig:         "加载配置错误: %v",
	ErrCatalog:        "打开目录错误: %v",
	ErrSources:        "打开源码错误: %v",
	ErrInvalidMode:    "错误: 未知的推断模式 %q",
	ErrLogger:         "创建日志错误: %v",
	ErrBuildFailed:    "构建目录错误: %v",
	ErrVerifyFailed:   "目录校验失败: %v",
	ErrNotFound:       "%s: 目录中不存在",
	ErrNoDatabase:     "错误: 未指定数据库（使用 -db 或 pcode.toml 的 source.sqlite）",
	ErrImportFailed:   "导入源码错误: %v",
	ErrGetWorkDir:     "获取工作目录错误: %v",
	ErrConfigExists:   "错误: %s 已存在",
	ErrCreateConfig:   "创建配置错误: %v",
	ErrCreateDir:      "创建目录错误: %v",
	ErrWriteOutput:    "写出结果错误: %v",
	ErrInferenceState: "%s: 推断%s",

	SuccessCheckOK:      "✓ %s: 没有发现问题",
	SuccessCatalogBuilt: "✓ 已写出 %s（%d 条记录，%d 字节）",
	SuccessVerified:     "✓ %s: 已校验 %d 条记录",
	SuccessImported:     "✓ 已导入 %d 个有变化的程序到 %s",
	InitCreating:        "创建 %s",
	InitSuccess:         "✓ 已在 %s 初始化项目",
	InitNextSteps:       "下一步:",

	CheckSummary: "检查了 %d 个文件: %d 个错误, %d 个警告",
	Function:     "函数",
	SystemVar:    "系统变量",
	Object:       "对象",
	Methods:      "方法",
	Properties:   "属性",
}

// 当前消息
var msg = messagesEN

// 当前语言
var currentLang = LangEnglish

// InitLanguage 初始化语言设置
// 优先级: 命令行参数 > 环境变量 PCODE_LANG > 操作系统语言 > 默认英文
func InitLanguage(langOverride string) {
	if langOverride != "" {
		setLanguage(langOverride)
		return
	}

	if envLang := os.Getenv(i18n.EnvLang); envLang != "" {
		setLanguage(envLang)
		return
	}

	if detectChineseOS() {
		setLanguage("zh")
		return
	}

	setLanguage("en")
}

// setLanguage 设置语言
func setLanguage(lang string) {
	if l, _ := i18n.Parse(lang); l == i18n.LangChinese {
		currentLang = LangChinese
		msg = messagesZH
	} else {
		currentLang = LangEnglish
		msg = messagesEN
	}
}

// detectChineseOS 检测操作系统是否为中文环境
func detectChineseOS() bool {
	if runtime.GOOS == "windows" {
		if detectWindowsChinese() {
			return true
		}
		if strings.HasPrefix(strings.ToLower(getWindowsLocale()), "zh") {
			return true
		}
	}

	// Unix/Linux/Mac: 检查环境变量
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANGUAGE", "LANG"} {
		if val := os.Getenv(v); val != "" {
			lower := strings.ToLower(val)
			return strings.HasPrefix(lower, "zh") || strings.Contains(lower, "chinese")
		}
	}

	return false
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	return currentLang
}

// Msg 获取当前消息对象
func Msg() *Messages {
	return &msg
}
