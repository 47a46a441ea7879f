// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 devpod 命令行运行期间的指标监听端口。

# 概述

Manager 封装 net/http.Server：Start 在后台 goroutine 中服务并立即
返回，Shutdown 在 ShutdownTimeout 内排空连接。监听地址可以是 ":0"，
实际绑定地址由 Addr 返回。

NewMetricsMux 挂载 /metrics（Prometheus 采集）与 /healthz（存储探活）。
*/
package server
