package types

import "strings"

// builtinObjects 内置对象类型名，键为小写
var builtinObjects = map[string]string{}

func init() {
	for _, name := range []string{
		"Object", "Rowset", "Row", "Record", "Field", "SQL", "File", "Message",
		"XmlDoc", "XmlNode", "Grid", "GridColumn", "Chart", "ApiObject", "Exception",
		"JavaObject", "Request", "Response", "ProcessRequest", "Page", "Array",
		"AnalyticInstance", "Crypt", "Interlink", "TransformData", "Image",
	} {
		builtinObjects[strings.ToLower(name)] = name
	}
}

// BuiltinObjectName 规范化内置对象名，非内置对象返回 false
func BuiltinObjectName(name string) (string, bool) {
	canonical, ok := builtinObjects[strings.ToLower(name)]
	return canonical, ok
}

// ParseTypeName 将源代码中的类型名转换为 TypeInfo
//
// 包含冒号的名称视为应用类；无法识别的名称返回 (nil, false)，
// 由调用方结合 import 继续解析短类名。
func ParseTypeName(name string) (TypeInfo, bool) {
	if strings.Contains(name, ":") {
		return NewAppClass(name), true
	}
	switch strings.ToLower(name) {
	case "string", "character":
		return String, true
	case "integer":
		return Integer, true
	case "number", "float", "decimal":
		return Number, true
	case "boolean":
		return Boolean, true
	case "date":
		return Date, true
	case "time":
		return Time, true
	case "datetime":
		return DateTime, true
	case "any":
		return Any, true
	}
	if canonical, ok := BuiltinObjectName(name); ok {
		return NewBuiltinObject(canonical), true
	}
	return nil, false
}
