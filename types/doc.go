/*
Package types 提供 devpod 各层共享的错误模型。

# 概述

types 是最底层的公共包，不依赖任何内部包。流水线的错误分类
（TRANSPORT / PARSE / SCHEMA_VIOLATION / FALLBACK_CONSTRUCTION）以及
生命周期、存储相关错误码均定义于此，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误，含 Retryable、Kind 与 Cause 链
  - AsError / IsErrorCode / GetErrorCode — 基于 errors.As 的错误链查询
*/
package types
