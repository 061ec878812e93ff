package signature

import "github.com/tangzhangming/pcode/internal/types"

// ============================================================================
// 重载匹配
// ============================================================================

// Accepts 判断单个实参能否传给一个单值参数（Single / Union / Reference）
//
// Group 与 Variable 由 MatchOverload 展开，不在这里判断。
func Accepts(p Parameter, arg types.TypeInfo, compat types.Compat) bool {
	switch x := p.(type) {
	case *SingleParameter:
		return acceptsType(x.Type, arg, compat)
	case *UnionParameter:
		for _, t := range x.Types {
			if acceptsType(t, arg, compat) {
				return true
			}
		}
		return false
	case *ReferenceParameter:
		if types.IsAny(arg) {
			return true
		}
		if types.IsUnknown(arg) {
			return compat.TreatUnknownAsAny
		}
		ref, ok := arg.(*types.ReferenceType)
		return ok && ref.Category == x.Category
	}
	return false
}

func acceptsType(t types.TypeWithDimensionality, arg types.TypeInfo, compat types.Compat) bool {
	if t.IsPolymorphic() {
		return true
	}
	return compat.IsAssignableFrom(t.ToTypeInfo(), arg)
}

// MatchOverload 返回第一个接受给定实参类型的重载下标
func (f *FunctionInfo) MatchOverload(args []types.TypeInfo, compat types.Compat) (int, bool) {
	if len(f.Overloads) == 0 {
		return -1, len(args) == 0
	}
	for i, overload := range f.Overloads {
		if MatchParams(overload, args, compat) {
			return i, true
		}
	}
	return -1, false
}

// MatchParams 判断参数列表能否恰好消费全部实参
func MatchParams(params []Parameter, args []types.TypeInfo, compat types.Compat) bool {
	for _, end := range consumeSeq(params, args, 0, compat) {
		if end == len(args) {
			return true
		}
	}
	return false
}

// consumeSeq 依次匹配 params，返回所有可能的结束位置
func consumeSeq(params []Parameter, args []types.TypeInfo, start int, compat types.Compat) []int {
	positions := []int{start}
	for _, p := range params {
		var next []int
		seen := make(map[int]bool)
		for _, pos := range positions {
			for _, end := range consume(p, args, pos, compat) {
				if !seen[end] {
					seen[end] = true
					next = append(next, end)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		positions = next
	}
	return positions
}

// consume 匹配单个参数，返回所有可能的结束位置
func consume(p Parameter, args []types.TypeInfo, start int, compat types.Compat) []int {
	switch x := p.(type) {
	case *GroupParameter:
		return consumeSeq(x.Params, args, start, compat)

	case *VariableParameter:
		var out []int
		if x.Min == 0 {
			out = append(out, start)
		}
		positions := []int{start}
		seen := map[int]bool{start: true}
		for count := int32(1); x.Max == Unlimited || count <= x.Max; count++ {
			var next []int
			for _, pos := range positions {
				for _, end := range consume(x.Inner, args, pos, compat) {
					// 不消费实参的重复没有意义，避免死循环
					if end == pos || seen[end] {
						continue
					}
					seen[end] = true
					next = append(next, end)
				}
			}
			if len(next) == 0 {
				break
			}
			if count >= x.Min {
				out = append(out, next...)
			}
			positions = next
		}
		return out

	default:
		if start < len(args) && Accepts(p, args[start], compat) {
			return []int{start + 1}
		}
		return nil
	}
}
