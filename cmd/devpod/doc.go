// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package main 提供 devpod 命令行入口。

# 概述

devpod 读取一份需求文档，驱动分析师、架构师、开发者、测试员与项目
负责人五个角色完成从用户故事到测试结果的完整流程，并把每个阶段的
产出写入配置的存储后端（memory、sql 或 redis）。

# 子命令

  - run      执行全部阶段并输出 JSON 报告
  - stories  只生成用户故事
  - query    在已存储的项目制品中检索
  - ask      向项目负责人提问
  - migrate  管理 SQL 存储的表结构版本
  - version  显示版本信息

llm.provider 为 offline 时不发出任何补全请求，所有制品由降级合成产生。
metrics.listen_addr 非空时，运行期间在该地址暴露 /metrics 与 /healthz。
版本信息（Version、BuildTime、GitCommit）通过 ldflags 注入。
*/
package main
