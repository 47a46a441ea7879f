// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 artifacts 定义角色智能体之间传递的结构化制品及其合法性规则。

# 概述

模型输出的制品有四类：用户故事、测试用例、测试结果与文件清单。
本包为每类制品提供类型化结构、批量 Schema、全有或全无的校验，
以及在提取或校验失败时确定性地合成兜底制品的能力。

# 核心类型

  - Kind / Origin：制品类别与来源标记（extracted / fallback）
  - UserStory / TestCase / TestResult / FileManifest：具体制品
  - SourceContext：合成兜底制品所用的上游只读输入
  - Validator：按类别校验整批载荷，任一元素违规则整批拒绝

# 主要能力

  - 批量校验：Validate 返回类型化制品或带字段路径的 SCHEMA_VIOLATION
  - 兜底合成：Synthesize 无网络、无随机性，结果按构造必然合法；
    来源为空时返回 FALLBACK_CONSTRUCTION
  - 测试结果兜底：下标能被 3 整除的用例判 FAIL，其余 PASS
  - 汇总：Summarize 统计通过数、通过率与失败用例
*/
package artifacts
