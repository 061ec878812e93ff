package ast

import (
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/types"
)

// Meta 节点旁挂状态：推断出的类型与针对该节点的诊断
//
// 一次推断过程独占地写入；推断完成后只读。
type Meta struct {
	typ   types.TypeInfo
	diags []*errors.TypeError
}

// InferredType 返回推断出的类型，未推断时为 nil
func (m *Meta) InferredType() types.TypeInfo { return m.typ }

// SetInferredType 记录推断出的类型
func (m *Meta) SetInferredType(t types.TypeInfo) { m.typ = t }

// HasType 是否已经推断过类型
func (m *Meta) HasType() bool { return m.typ != nil }

// AddDiagnostic 追加一条诊断
func (m *Meta) AddDiagnostic(d *errors.TypeError) { m.diags = append(m.diags, d) }

// Diagnostics 返回该节点上的诊断
func (m *Meta) Diagnostics() []*errors.TypeError { return m.diags }

// Reset 清除推断结果
func (m *Meta) Reset() {
	m.typ = nil
	m.diags = nil
}

// exprBase 嵌入到每个表达式节点中
type exprBase struct {
	meta Meta
}

func (b *exprBase) Meta() *Meta { return &b.meta }
