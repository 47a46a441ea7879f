/*
包 lifecycle 管理一个项目从需求到问答的完整开发流程。

# 概述

Session 持有项目名、需求以及各阶段产出，并记录每项产出的来源
（extracted 或 fallback）。Machine 是显式的阶段状态机：

	setup ─Start→ requirements ⇄ design ⇄ development ⇄ testing ⇄ chat

setup 只能经 Start 离开且不可返回；其余五个阶段之间可用 Next、
Previous 或 GoTo 任意切换，非法切换返回 INVALID_TRANSITION。

# Runner

Runner.Initialize 存储需求文档并启动状态机。RunPhase 切换到指定
阶段并执行其处理函数，产出已存在时跳过生成；RunAll 依次执行全部
阶段，结束时停在 chat。每个阶段的产出都写入 persistence.Store。
Ask 向项目负责人提问，问答记录同时保存在会话与存储中。
*/
package lifecycle
