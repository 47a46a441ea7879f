package migration

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// CLI 为 devpod migrate 子命令格式化输出
type CLI struct {
	migrator Migrator
	output   io.Writer
}

// NewCLI 创建 CLI
func NewCLI(migrator Migrator, output io.Writer) *CLI {
	return &CLI{migrator: migrator, output: output}
}

// Run 执行 up、down、version 或 status
func (c *CLI) Run(ctx context.Context, action string) error {
	switch action {
	case "up":
		return c.RunUp(ctx)
	case "down":
		return c.RunDown(ctx)
	case "version":
		return c.RunVersion(ctx)
	case "status", "":
		return c.RunStatus(ctx)
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}

// RunUp 应用全部未执行的迁移
func (c *CLI) RunUp(ctx context.Context) error {
	if err := c.migrator.Up(ctx); err != nil {
		return err
	}
	return c.printVersion(ctx, "Migrations complete")
}

// RunDown 回滚最近一次迁移
func (c *CLI) RunDown(ctx context.Context) error {
	if err := c.migrator.Down(ctx); err != nil {
		return err
	}
	return c.printVersion(ctx, "Rollback complete")
}

func (c *CLI) printVersion(ctx context.Context, prefix string) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "%s. Current version: %d\n", prefix, info.CurrentVersion)
	return nil
}

// RunVersion 显示当前版本
func (c *CLI) RunVersion(ctx context.Context) error {
	version, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(c.output, "No migrations applied yet.")
		return nil
	}
	fmt.Fprintf(c.output, "Current version: %d", version)
	if dirty {
		fmt.Fprint(c.output, " (dirty)")
	}
	fmt.Fprintln(c.output)
	return nil
}

// RunStatus 以表格列出全部迁移
func (c *CLI) RunStatus(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(c.output, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	applied := 0
	for _, s := range statuses {
		status := "Pending"
		if s.Applied {
			status = "Applied"
			applied++
		}
		if s.Dirty {
			status = "Dirty"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.output, "\nTotal: %d, Applied: %d, Pending: %d\n", len(statuses), applied, len(statuses)-applied)
	return nil
}
