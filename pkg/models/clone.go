package models

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return cloneMap(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneFields(m map[string]FieldDef) map[string]FieldDef {
	if m == nil {
		return nil
	}

	out := make(map[string]FieldDef, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}

	return out
}
