package indicator

// Series 表示一条按省略约定（omit convention）对齐的派生序列：
// 预热期内的值不存在，Values[0] 对应原始序列下标 Offset。
// 所有指标统一使用该约定，避免 NaN 填充与偏移混用带来的错位。
type Series struct {
	Values []float64
	Offset int
}

func (s Series) Len() int { return len(s.Values) }

// At 按原始序列下标取值；预热期内返回 false。
func (s Series) At(idx int) (float64, bool) {
	i := idx - s.Offset
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Last 返回最后一个值；空序列返回 0。
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// FirstIndex 返回序列覆盖的第一个原始下标。
func (s Series) FirstIndex() int { return s.Offset }

// LastIndex 返回序列覆盖的最后一个原始下标；空序列返回 Offset-1。
func (s Series) LastIndex() int { return s.Offset + len(s.Values) - 1 }
