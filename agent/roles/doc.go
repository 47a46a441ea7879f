/*
包 roles 实现 AI 开发小组的五个角色智能体。

# 概述

结构化阶段（用户故事、文件清单、测试用例、测试结果）通过
agent/pipeline 运行，模型输出不可用时自动降级为兜底合成；
自由文本阶段（设计文档、源文件、问答）直接调用补全接口，
失败时以 "Error: <msg>" 作为产出并通过 Text.Err 暴露原因。

# 角色

  - BusinessAnalyst: 需求 → 用户故事。
  - Architect: 需求 + 用户故事 → Markdown 设计文档。
  - Developer: 设计 + 用户故事 → 文件清单，再按清单并发生成各文件，
    并发数由 WithCodeConcurrency 限制，结果顺序与清单一致。
  - Tester: 测试用例编写与（模拟）执行。
  - ProjectLead: 汇总项目制品并检索存储，回答问题后保存问答记录。
*/
package roles
