// Copyright 2025-2026 devpod Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag 提供制品存储所需的最小检索能力：内存向量存储与
确定性的特征哈希嵌入。

# 核心接口/类型

  - VectorStore — 向量存储统一接口（AddDocuments / Search / DeleteDocuments / Count）
  - InMemoryVectorStore — 余弦相似度内存实现，支持按元数据筛选
  - Embedder / HashEmbedder — 文本到向量的映射，无外部服务、无词表状态

# 主要能力

  - 相似度检索：Search / SearchFiltered 返回按分数降序的前 K 个结果
  - 重排：RankDocuments 为不具备向量检索的后端（SQL、Redis）按相似度排序
*/
package rag
