// Package tokenizer 提供统一的 Token 计数接口，
// 支持 tiktoken 精确计数与 CJK 估算器，并通过 Truncate 约束提示词中的预览片段长度。
package tokenizer
