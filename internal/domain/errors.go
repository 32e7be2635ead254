// Package domain 定义了追踪日志分析的核心领域模型。
package domain

import "errors"

// 领域错误定义
// 解码、记录提取和过滤条件的失败都在本地降级处理，不会出现在这里；
// 这里只列出需要交给调用方处理的错误。

var (
	// ========== 数据源相关错误 ==========

	// ErrSourceUnavailable 表示无法获取日志文本（文件不存在、无权限、解压失败等）
	ErrSourceUnavailable = errors.New("log source unavailable")

	// ========== 解码相关错误 ==========

	// ErrInvalidDuration 表示耗时文本无法解析（仅由严格解析接口返回）
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidTimestamp 表示时间戳不符合 YYYY-MM-DD HH:MM:SS.ffffff 格式
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ========== 过滤相关错误 ==========

	// ErrInvalidPreset 表示过滤预设文件不是合法的 JSON 对象
	ErrInvalidPreset = errors.New("invalid filter preset")

	// ========== 输出相关错误 ==========

	// ErrEmptyDataset 表示没有任何记录可供导出或绘图
	ErrEmptyDataset = errors.New("no records to process")
	// ErrUnknownChart 表示请求了不支持的图表类型
	ErrUnknownChart = errors.New("unknown chart kind")
	// ErrUnknownSection 表示请求了不支持的分析段落
	ErrUnknownSection = errors.New("unknown analysis section")
)
