/*
包 pipeline 实现"补全 → 提取 → 校验 → 兜底"的结构化制品流水线。

# 概述

每次 Run 为指定类别构建提示词，向模型发出且仅发出一次补全请求，
从返回文本中提取 JSON 载荷并按批量 Schema 校验。补全失败、提取失败
或校验失败时，流水线改用 artifacts.Synthesize 合成兜底制品，
并在 Result 中记录被吸收的错误码与完整状态轨迹。

# 状态机

	started → completion_requested
	completion_requested → completion_failed → fallback_used
	completion_requested → completion_received → extracting
	extracting → extract_failed → fallback_used
	extracting → extracted → validating
	validating → invalid → fallback_used
	validating → valid → done

done 与 fallback_used 为终态。

# 可观测性

每次运行生成一个 OpenTelemetry span，并通过 MetricsRecorder
上报运行与补全指标。降级以 WARN 级别记录，包含首个违规字段路径。
*/
package pipeline
