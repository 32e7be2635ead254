// Package export 把记录和统计写成表格行或 xlsx 工作簿。
package export

import (
	"fmt"
	"io"

	"github.com/oriys/tracescope/internal/aggregate"
	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/duration"
	"github.com/xuri/excelize/v2"
)

// 工作表名称
const (
	SheetRawData    = "Raw Data"
	SheetStatistics = "Statistics"
)

// RawDataHeader 是原始数据表的表头
var RawDataHeader = []string{
	"Timestamp", "Function", "Start Time", "End Time",
	"Duration (s)", "Formatted Duration", "Details",
}

// StatisticsHeader 是统计表的表头
var StatisticsHeader = []string{
	"Function", "Count", "Min Duration (s)", "Max Duration (s)",
	"Average Duration (s)", "Std Dev", "Total Duration (s)",
}

// RawDataRows 返回带表头的原始数据行，每条记录一行。
// 开始和结束时间格式化为 HH:MM:SS.mmm。
func RawDataRows(records []domain.LogRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records)+1)
	rows = append(rows, header(RawDataHeader))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.Timestamp,
			r.Function,
			duration.FormatClock(r.StartTime),
			duration.FormatClock(r.EndTime),
			r.DurationSeconds,
			duration.Format(r.DurationRaw),
			r.Details,
		})
	}
	return rows
}

// StatisticsRows 返回带表头的统计行，按函数首次出现顺序。
func StatisticsRows(table aggregate.Table) [][]interface{} {
	rows := make([][]interface{}, 0, table.Len()+1)
	rows = append(rows, header(StatisticsHeader))
	for _, st := range table.Rows() {
		rows = append(rows, []interface{}{
			st.Function, st.Count, st.Min, st.Max, st.Average, st.StdDev, st.Total,
		})
	}
	return rows
}

func header(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

// WriteXLSX 把记录和统计写成包含 "Raw Data" 与 "Statistics" 两个工作表的工作簿。
// 没有记录时返回 domain.ErrEmptyDataset。
func WriteXLSX(w io.Writer, records []domain.LogRecord, table aggregate.Table) error {
	if len(records) == 0 {
		return domain.ErrEmptyDataset
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRawData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetStatistics); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRows(f, SheetRawData, RawDataRows(records)); err != nil {
		return err
	}
	if err := writeRows(f, SheetStatistics, StatisticsRows(table)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
