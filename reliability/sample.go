package reliability

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"contentCoder/core"

	"github.com/xuri/excelize/v2"
)

// SampleObservations 生成演示用的数据集：3个内容条目，每个条目2名编码员
func SampleObservations(varNames []string) []core.Observation {
	var observations []core.Observation
	for contentID := 1; contentID <= 3; contentID++ {
		for coderID := 1; coderID <= 2; coderID++ {
			values := make(map[string]any, len(varNames))
			for _, name := range varNames {
				values[name] = fmt.Sprintf("值_%d_%d", contentID, coderID)
			}
			observations = append(observations, core.Observation{
				ContentID: fmt.Sprintf("content_%d", contentID),
				CoderID:   fmt.Sprintf("coder_%d", coderID),
				Values:    values,
			})
		}
	}
	return observations
}

// ExportCSV 以表格形式导出观察记录，变量列按 varNames 的顺序排列
func ExportCSV(w io.Writer, observations []core.Observation, varNames []string) error {
	cw := csv.NewWriter(w)

	header := append([]string{"content_id", "coder_id"}, varNames...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, obs := range observations {
		row := []string{obs.ContentID, obs.CoderID}
		for _, name := range varNames {
			row = append(row, cellValue(obs, name))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportJSON 导出记录数组格式的JSON，变量嵌套在 variables 字段里
func ExportJSON(w io.Writer, observations []core.Observation) error {
	data, err := json.MarshalIndent(observations, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportXLSX 导出Excel工作簿，布局与CSV相同
func ExportXLSX(w io.Writer, observations []core.Observation, varNames []string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := append([]string{"content_id", "coder_id"}, varNames...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, obs := range observations {
		row := []string{obs.ContentID, obs.CoderID}
		for _, name := range varNames {
			row = append(row, cellValue(obs, name))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func cellValue(obs core.Observation, name string) string {
	value, ok := obs.Values[name]
	if !ok {
		return ""
	}
	return fmt.Sprint(value)
}
