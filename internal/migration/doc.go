// 版权所有 2026 devpod Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 以版本化 SQL 管理 SQL 存储后端的 artifacts 表。

# 概述

migrations/ 下按方言（sqlite、postgres、mysql）内嵌迁移文件，
由 golang-migrate 执行，版本记录在 schema_migrations 表中。
database.migrations 为 true 时，存储工厂在打开 SQL 后端前执行 Up，
并跳过 GORM 的 AutoMigrate；也可通过 devpod migrate 手动管理。

# 核心类型

  - Migrator：Up/Down/Version/Status/Info/Close
  - SchemaMigrator：基于 golang-migrate 的实现，使用独立数据库连接
  - CLI：devpod migrate 的表格化输出

内存 SQLite 每个连接各有一份数据，不能迁移，此时依赖 AutoMigrate。
*/
package migration
