package types

import (
	"fmt"
	"strings"
)

// ReferenceCategory 声明式元数据引用的类别
//
// 这些类别用于按名称而非按值引用定义，例如 RECORD.JOB、FIELD.EMPLID。
type ReferenceCategory uint8

const (
	RefNone ReferenceCategory = iota
	RefRecord
	RefField
	RefSQL
	RefPage
	RefComponent
	RefMenuName
	RefBarName
	RefItemName
	RefBusProcess
	RefBusActivity
	RefHTML
	RefImage
	RefURL
	RefFileLayout
	RefOperation
	RefCompIntfc
	RefMessage
	RefNode
	RefStyleSheet
	RefPanel
	RefScroll
	RefMarket
	RefInterlink
	RefDocument

	refCategoryCount
)

var referenceNames = [...]string{
	RefNone:        "",
	RefRecord:      "RECORD",
	RefField:       "FIELD",
	RefSQL:         "SQL",
	RefPage:        "PAGE",
	RefComponent:   "COMPONENT",
	RefMenuName:    "MENUNAME",
	RefBarName:     "BARNAME",
	RefItemName:    "ITEMNAME",
	RefBusProcess:  "BUSPROCESS",
	RefBusActivity: "BUSACTIVITY",
	RefHTML:        "HTML",
	RefImage:       "IMAGE",
	RefURL:         "URL",
	RefFileLayout:  "FILELAYOUT",
	RefOperation:   "OPERATION",
	RefCompIntfc:   "COMPINTFC",
	RefMessage:     "MESSAGE",
	RefNode:        "NODE",
	RefStyleSheet:  "STYLESHEET",
	RefPanel:       "PANEL",
	RefScroll:      "SCROLL",
	RefMarket:      "MARKET",
	RefInterlink:   "INTERLINK",
	RefDocument:    "DOCUMENT",
}

var referenceByName map[string]ReferenceCategory

func init() {
	referenceByName = make(map[string]ReferenceCategory, len(referenceNames))
	for i, name := range referenceNames {
		if name != "" {
			referenceByName[name] = ReferenceCategory(i)
		}
	}
}

func (c ReferenceCategory) String() string {
	if c < refCategoryCount {
		return referenceNames[c]
	}
	return fmt.Sprintf("ReferenceCategory(%d)", uint8(c))
}

// Valid 是否为已知类别
func (c ReferenceCategory) Valid() bool {
	return c > RefNone && c < refCategoryCount
}

// ParseReferenceCategory 按名称查找引用类别（不区分大小写）
func ParseReferenceCategory(name string) (ReferenceCategory, bool) {
	c, ok := referenceByName[strings.ToUpper(name)]
	return c, ok
}
