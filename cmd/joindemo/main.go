package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kasuganosora/pipejoin/pkg/config"
	"github.com/kasuganosora/pipejoin/pkg/executor/parallel"
	"github.com/kasuganosora/pipejoin/pkg/frame"
	"github.com/kasuganosora/pipejoin/pkg/logger"
	"github.com/kasuganosora/pipejoin/pkg/monitor"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	batchSize := flag.Int("batch-size", 2, "rows per probe chunk")
	flag.Parse()

	// 加载配置
	cfg := config.LoadConfigOrDefault()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	customers := frame.MustDataFrame(
		frame.NewSeriesInt64("id", []int64{1, 2, 3, 4}),
		frame.NewSeriesString("name", []string{"Alice", "Bob", "Carol", "Dave"}),
	)
	orders := frame.MustDataFrame(
		frame.NewSeriesInt64("id", []int64{2, 2, 4, 5, 6}),
		frame.NewSeriesFloat64("amount", []float64{200, 150, 80, 300, 42}),
	)

	exec, err := parallel.NewParallelFullJoinExecutor(
		parallel.JoinInput{Frame: customers, On: []string{"id"}},
		parallel.JoinInput{Frame: orders, On: []string{"id"}},
		cfg.Join, cfg.Pool, *batchSize, lg,
	)
	if err != nil {
		lg.Error("创建执行器失败: %v", err)
		os.Exit(1)
	}
	metrics := monitor.NewMetricsCollector(time.Second)
	exec.SetMetrics(metrics)
	lg.Info("执行: %s", exec.Explain())

	res, err := exec.Execute(context.Background())
	if err != nil {
		lg.Error("执行失败: %v", err)
		os.Exit(1)
	}

	fmt.Println(strings.Join(res.Frame.ColumnNames(), "\t"))
	for _, row := range res.Frame.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "null"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}

	snap := metrics.GetSnapshot()
	lg.Info("完成: streaming rows=%d, flushed rows=%d, chunks=%d, duration=%v",
		snap.StreamingRows, snap.FlushedRows, snap.ChunkCount, snap.AvgDuration)
}
