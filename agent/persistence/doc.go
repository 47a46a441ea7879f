// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 persistence 提供项目制品的持久化存储与检索。

# 概述

每个阶段的产出（需求、用户故事、设计文档、代码文件、测试用例与测试结果、
问答记录）按集合（Collection）存放，键格式为
{project}_{kind}_{index}_{timestamp}，其中 timestamp 为纳秒时间戳。
Query 在除 conversations 外的集合中按与查询文本的相似度排序，
只返回非空集合。

# 核心接口

  - Store: Put / PutDocument / Query / Ping / Close。
  - Recorder: 写入与查询指标回调，internal/metrics.Collector 实现了它。

# 后端实现

  - Memory: 每个集合一个 rag.InMemoryVectorStore，写入时计算嵌入。
  - SQL: 通过 GORM 写入 artifacts 表（sqlite / postgres / mysql），
    查询时取出项目记录后在进程内排序。
  - Redis: 每条记录一个 Hash，按项目与集合建立以创建时间为分值的
    Sorted Set 索引，读取使用 Pipeline 批量 HGETALL。

# 使用方式

	store, err := persistence.New(ctx, cfg, logger, persistence.WithRecorder(collector))
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := store.Put(ctx, "shop", artifacts.KindUserStory, story, 0)
	hits, err := store.Query(ctx, "shop", "checkout flow", 5)
*/
package persistence
