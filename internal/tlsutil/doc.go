// Package tlsutil 为 devpod 的出站连接提供统一的 TLS 设置。
//
// 补全请求（Hugging Face 推理端点）使用 SecureHTTPClient；
// 启用 redis.tls 时存储层用 RedisTLSConfig 建立 Redis 连接。
// 最低 TLS 1.2，TLS 1.2 下仅允许 AEAD 密码套件。
package tlsutil
