// Package telemetry 封装 OpenTelemetry SDK 初始化，
// 为 devpod 提供 OTLP gRPC 导出的 TracerProvider 和 MeterProvider。
// 禁用时保留 noop 全局实现，不连接任何外部服务。
package telemetry
