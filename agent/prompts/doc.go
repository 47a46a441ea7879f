/*
包 prompts 为开发小组的各个角色构建提示词。

# 概述

模板以 go:embed 内嵌，变量使用 {{name}} 占位并单遍替换。
结构化制品（用户故事、测试用例、测试结果、文件清单）的系统指令
附带该类制品的 JSON Schema，自由文本（设计文档、源文件、问答）
只携带角色身份。

# 核心类型

  - Builder：依据 artifacts.SourceContext 生成 Prompt{User, System}，
    设计文档与代码片段经 tokenizer.Truncate 截断。
  - SystemPrompt：角色、输出规则、禁止项与 Schema 的渲染。

# 辅助函数

  - RenderStories / RenderTestCases：上游制品的纯文本渲染，
    同时用于角色提示词与项目摘要。
*/
package prompts
