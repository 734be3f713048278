package reddit

import "strings"

// findItemsObject 在模型输出的文本里找第一个含 "items" 的顶层 JSON 对象
//
// 单次线性扫描，只在对象内部跟踪字符串和转义，对象外的说明文字不影响配对。
// 未闭合的对象视为找不到。
func findItemsObject(text string) (string, bool) {
	const token = `"items"`

	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if depth == 0 {
			if ch == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if strings.Contains(candidate, token) {
					return candidate, true
				}
			}
		}
	}
	return "", false
}
