package roles

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/pipeline"
)

// Developer 先确定文件清单，再逐个文件生成代码
type Developer struct {
	pipeline    *pipeline.Pipeline
	writer      writer
	concurrency int
	logger      *zap.Logger
}

// Code 代码生成阶段的产出
type Code struct {
	Manifest *pipeline.Result
	// Files 与清单顺序一致
	Files []artifacts.CodeFile
	// Failed 为补全失败、内容为失败文本的文件名
	Failed []string
}

// GenerateCode 运行文件清单流水线，然后并发为每个文件发起一次补全。
// 单个文件失败不影响其他文件。
func (d *Developer) GenerateCode(ctx context.Context, project string, stories []artifacts.UserStory, design string) (*Code, error) {
	res, err := d.pipeline.Run(ctx, artifacts.KindFileManifest, artifacts.SourceContext{
		Project:     project,
		UserStories: stories,
		DesignDoc:   design,
	})
	if err != nil {
		return nil, err
	}
	manifest, _ := artifacts.Manifest(res.Artifacts)

	files := make([]artifacts.CodeFile, len(manifest.Filenames))
	texts := make([]Text, len(manifest.Filenames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, name := range manifest.Filenames {
		g.Go(func() error {
			prompt, err := d.writer.prompts.CodeFile(design, stories, name)
			if err != nil {
				return err
			}
			texts[i] = d.writer.write(gctx, prompt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Code{Manifest: res, Files: files}
	for i, name := range manifest.Filenames {
		files[i] = artifacts.CodeFile{Name: name, Content: texts[i].Content}
		if texts[i].Failed() {
			out.Failed = append(out.Failed, name)
			d.logger.Warn("code completion failed", zap.String("file", name), zap.Error(texts[i].Err))
		}
	}
	return out, nil
}
