// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接与连接池管理，供 SQL
制品存储使用。

# 概述

Open 按配置选择方言（sqlite 使用纯 Go 的 glebarez 驱动，另支持
postgres 与 mysql），建立连接后交由 PoolManager 统一管理连接
生命周期、空闲回收与最大连接数限制。后台健康检查定时探活，
并可将连接数上报给指标收集器。

# 核心类型

  - PoolManager：连接池管理器，持有 GORM DB 实例与底层 sql.DB，
    提供 DB()、Ping()、Stats()、Close() 等生命周期方法。
  - PoolConfig：连接池配置，包含最大空闲连接数、最大打开连接数、
    连接最大生命周期、空闲超时与健康检查间隔。
  - StatsRecorder：健康检查的连接数接收方。

# 主要能力

  - 方言选择：Dialector / Open。
  - 健康检查：后台定时 PingContext 探活，Close 时同步退出。
  - 事务管理：WithTransaction 提供单次事务执行，
    WithTransactionRetry 对死锁、序列化失败、SQLite 忙等瞬时错误
    按指数退避重试。
*/
package database
