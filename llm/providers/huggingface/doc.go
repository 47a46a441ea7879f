// Package huggingface 提供 Hugging Face Inference API 的文本生成 Provider，
// 支持 [INST] 提示包装、本地令牌桶限流与可选的指数退避重试。
package huggingface
