// Package config 提供 devpod 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（DEVPOD_ 前缀）的顺序叠加，
// 覆盖文本补全端点、角色并发、制品存储后端、数据库、Redis、
// 日志、遥测与指标。Validate 在启动时拒绝不一致的组合。
package config
