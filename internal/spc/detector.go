package spc

// DetectOutOfControl flags every point strictly above UCL or strictly below
// LCL. A point exactly on a limit is in control.
func DetectOutOfControl(series []float64, limits LimitTriple) OutOfControlFlags {
	result := OutOfControlFlags{
		Flags:   make([]bool, len(series)),
		Indices: []int{},
	}
	for i, v := range series {
		if v > limits.UCL || v < limits.LCL {
			result.Flags[i] = true
			result.Indices = append(result.Indices, i)
		}
	}
	result.Count = len(result.Indices)
	return result
}
