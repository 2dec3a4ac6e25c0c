package repository

import "strings"

// ============================================
// 搜索词规范化（纯函数，无I/O）
// ============================================

// searchSyntaxReplacer 把数组/括号语法敏感字符替换为空格
var searchSyntaxReplacer = strings.NewReplacer(
	"{", " ",
	"}", " ",
	"(", " ",
	")", " ",
	",", " ",
)

// NormalizeSearchValue 清洗自由文本搜索词
// 敏感字符（{ } ( ) ,）替换为空格，连续空白折叠为单个空格，去首尾空白
// 例: "a,b{c}(d)" -> "a b c d"
func NormalizeSearchValue(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := searchSyntaxReplacer.Replace(raw)
	return strings.Join(strings.Fields(cleaned), " ")
}

// QuoteArrayElement 把单个值转义为数组字面量元素
// 元素用双引号包裹，内部的 \ 和 " 各自加反斜杠转义
func QuoteArrayElement(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// ArrayContainsLiteral 构造 text[] 包含谓词的数组字面量参数
// 与 parties_names @> $n::text[] 搭配，值走参数绑定，不拼进SQL
func ArrayContainsLiteral(value string) string {
	return "{" + QuoteArrayElement(value) + "}"
}
