// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的流水线指标采集能力，覆盖
制品流水线、文本补全、项目阶段、制品存储与数据库连接。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
注册到默认或指定的 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等向量指标。

# 主要能力

  - 流水线指标：运行总数按 kind/origin/reason 分组，reason 为
    TRANSPORT、PARSE、SCHEMA_VIOLATION 或 none。
  - 补全指标：调用次数与耗时，按 kind/status 分组。
  - 阶段指标：项目阶段切换计数，按 from_phase/to_phase 分组。
  - 存储指标：写入计数按 backend/collection/status 分组，查询耗时。
  - 数据库指标：活跃/空闲连接数 Gauge。
  - Handler：以 promhttp 暴露 Registry。
*/
package metrics
