// Copyright 2026 devpod Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 structured 负责把模型自由文本中的 JSON 载荷取出来，并按 JSONSchema
做字段级校验。它不认识具体的制品类型，只提供通用的 Schema 建模、
括号提取与校验能力，由 agent/artifacts 在其上定义各类制品的结构。

# 核心类型

  - JSONSchema — Schema 定义，支持 object/array/enum/const/pattern/if-then-else
  - SchemaValidator / DefaultValidator — 字段级校验，不做任何类型转换
  - ParseError / ValidationErrors — 带路径的违规信息
  - ExtractJSON / Shape / Payload — 首个开括号到最后一个同类闭括号的载荷提取

# 典型用法

	p, err := structured.ExtractJSON(text, structured.ShapeArray)
	if err != nil { // PARSE 错误 }
	err = structured.NewValidator().ValidateValue(p.Value, schema)

# 已知限制

文本中出现多个相互独立的 JSON 块时，提取区间会横跨它们并解析失败。
*/
package structured
