package main

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/andresuchdata/stockmax/internal/pipeline"
	"github.com/andresuchdata/stockmax/internal/storage"
	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runCompute(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := newPipeline(c, cfg)
	if err != nil {
		return err
	}
	src, err := newSource(c, cfg)
	if err != nil {
		return err
	}

	sinks := []pipeline.Sink{&pipeline.DirSink{Dir: stringOr(c, "output-dir", cfg.App.OutputDir)}}
	if c.Bool("upload") {
		client, err := newObjectStorage(cfg)
		if err != nil {
			return err
		}
		sinks = append(sinks, storage.NewBucketSink(client, cfg.Storage.Bucket, cfg.Storage.Prefix))
	}

	runCfg := pipeline.DefaultPipelineConfig(p.Name())
	runCfg.DownloadDir = c.String("download-dir")
	runCfg.ResultFileName = c.String("output-name")
	runCfg.WriteXLSX = cfg.App.WriteXLSX
	if c.IsSet("xlsx") {
		runCfg.WriteXLSX = c.Bool("xlsx")
	}

	logger.Log.Info().
		Str("topology", p.Topology().String()).
		Str("source", src.Name()).
		Msg("computing maximum stock")

	run, err := pipeline.NewOrchestrator(runCfg, sinks...).Run(ctx, p, src)
	if err != nil {
		return err
	}
	for _, out := range run.Outputs {
		fmt.Fprintln(c.App.Writer, out)
	}
	return nil
}
