package ast

import "github.com/tangzhangming/pcode/internal/token"

// Visitor 访问者函数类型，返回 false 时不再进入子节点
type Visitor func(node Node) bool

// Walk 按源代码顺序深度优先遍历 AST 节点
func Walk(node Node, visitor Visitor) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, imp := range n.Imports {
			Walk(imp, visitor)
		}
		if n.Interface != nil {
			Walk(n.Interface, visitor)
		}
		if n.Class != nil {
			Walk(n.Class, visitor)
		}
		for _, c := range n.Constants {
			Walk(c, visitor)
		}
		for _, fn := range n.Functions {
			Walk(fn, visitor)
		}
		for _, stmt := range n.Statements {
			Walk(stmt, visitor)
		}

	case *ClassDecl:
		for _, c := range n.Constants {
			Walk(c, visitor)
		}
		for _, inst := range n.Instances {
			Walk(inst, visitor)
		}
		for _, impl := range n.Impls {
			Walk(impl, visitor)
		}

	case *ConstantDecl:
		Walk(n.Value, visitor)
	case *MethodImpl:
		walkBlock(n.Body, visitor)
	case *FunctionDecl:
		walkBlock(n.Body, visitor)

	// 语句
	case *BlockStmt:
		for _, stmt := range n.Statements {
			Walk(stmt, visitor)
		}
	case *ExprStmt:
		Walk(n.Expr, visitor)
	case *VarDeclStmt:
		for _, name := range n.Names {
			Walk(name.Init, visitor)
		}
	case *IfStmt:
		Walk(n.Condition, visitor)
		walkBlock(n.Then, visitor)
		walkBlock(n.Else, visitor)
	case *ForStmt:
		Walk(n.Variable, visitor)
		Walk(n.From, visitor)
		Walk(n.To, visitor)
		Walk(n.Step, visitor)
		walkBlock(n.Body, visitor)
	case *WhileStmt:
		Walk(n.Condition, visitor)
		walkBlock(n.Body, visitor)
	case *RepeatStmt:
		walkBlock(n.Body, visitor)
		Walk(n.Condition, visitor)
	case *EvaluateStmt:
		Walk(n.Subject, visitor)
		for _, w := range n.Whens {
			Walk(w.Value, visitor)
			walkBlock(w.Body, visitor)
		}
		walkBlock(n.Other, visitor)
	case *ReturnStmt:
		Walk(n.Value, visitor)
	case *TryStmt:
		walkBlock(n.Body, visitor)
		for _, c := range n.Catches {
			walkBlock(c.Body, visitor)
		}
	case *ThrowStmt:
		Walk(n.Value, visitor)
	case *BranchStmt:
		Walk(n.Value, visitor)

	// 表达式
	case *BinaryExpr:
		Walk(n.Left, visitor)
		Walk(n.Right, visitor)
	case *UnaryExpr:
		Walk(n.Operand, visitor)
	case *CallExpr:
		Walk(n.Function, visitor)
		for _, arg := range n.Arguments {
			Walk(arg, visitor)
		}
	case *MemberAccess:
		Walk(n.Object, visitor)
	case *IndexExpr:
		Walk(n.Object, visitor)
		for _, idx := range n.Indexes {
			Walk(idx, visitor)
		}
	case *ObjectCreation:
		for _, arg := range n.Arguments {
			Walk(arg, visitor)
		}
	case *TypeCastExpr:
		Walk(n.Expr, visitor)
	case *AssignExpr:
		Walk(n.Target, visitor)
		Walk(n.Value, visitor)
	}
}

func walkBlock(b *BlockStmt, visitor Visitor) {
	if b != nil {
		Walk(b, visitor)
	}
}

// ExpressionAt 返回覆盖给定位置的最内层表达式
func ExpressionAt(root Node, pos token.Position) Expression {
	var found Expression
	Walk(root, func(n Node) bool {
		if e, ok := n.(Expression); ok && covers(e, pos) {
			found = e
		}
		return true
	})
	return found
}

func covers(n Node, pos token.Position) bool {
	start, end := n.Pos(), n.End()
	if pos.Line < start.Line || pos.Line > end.Line {
		return false
	}
	if pos.Line == start.Line && pos.Column < start.Column {
		return false
	}
	if pos.Line == end.Line && pos.Column >= end.Column {
		return false
	}
	return true
}

// ResetMeta 清除整棵树上的推断结果
func ResetMeta(root Node) {
	Walk(root, func(n Node) bool {
		if e, ok := n.(Expression); ok {
			e.Meta().Reset()
			if m, ok := e.(*MemberAccess); ok {
				m.ResolvedMethod = nil
			}
		}
		return true
	})
}
