// Package main 是 tracescope 命令行工具的入口点
// tracescope 解析函数执行日志，输出统计、分析结果、xlsx 导出和图表
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oriys/tracescope/cmd/tracescope/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
