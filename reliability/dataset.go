package reliability

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"contentCoder/core"

	"github.com/xuri/excelize/v2"
)

// 数据集必须带有的两列
var requiredColumns = []string{"content_id", "coder_id"}

// 支持的可靠性计算方法
var AllMethods = []string{"百分比一致性", "Holsti系数", "Scott's Pi", "Cohen's Kappa", "Krippendorff's Alpha"}

// DefaultMethods 请求未指定方法时使用
var DefaultMethods = []string{"百分比一致性", "Krippendorff's Alpha"}

var ErrNotEnoughObservations = errors.New("没有足够的观察值进行计算")

// ParseDataset 按文件扩展名解析多编码员数据集，支持 .csv、.json 和 .xlsx，
// 返回观察记录和变量列名
func ParseDataset(filename string, r io.Reader) ([]core.Observation, []string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		return ParseXLSX(r)
	case ".csv":
		return ParseCSV(r)
	case ".json":
		return ParseJSON(r)
	default:
		return nil, nil, fmt.Errorf("不支持的文件格式: %s", ext)
	}
}

func ParseCSV(r io.Reader) ([]core.Observation, []string, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("读取CSV失败: %v", err)
	}
	return tableToObservations(rows)
}

func ParseXLSX(r io.Reader) ([]core.Observation, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("读取Excel失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("读取Excel失败: %v", err)
	}
	return tableToObservations(rows)
}

// ParseJSON 解析记录数组格式的JSON数据集，每条记录形如
// {"content_id": ..., "coder_id": ..., "variables": {...}}
func ParseJSON(r io.Reader) ([]core.Observation, []string, error) {
	var items []map[string]any
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("读取JSON失败: %v", err)
	}

	observations := make([]core.Observation, 0, len(items))
	varSet := map[string]struct{}{}

	for i, item := range items {
		for _, col := range requiredColumns {
			if _, ok := item[col]; !ok {
				return nil, nil, fmt.Errorf("第 %d 条记录缺少必要的字段: %s", i+1, col)
			}
		}
		rawVars, ok := item["variables"].(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("第 %d 条记录缺少必要的字段: variables", i+1)
		}

		values := make(map[string]any, len(rawVars))
		for name, value := range rawVars {
			values[name] = value
			varSet[name] = struct{}{}
		}
		observations = append(observations, core.Observation{
			ContentID: fmt.Sprint(item["content_id"]),
			CoderID:   fmt.Sprint(item["coder_id"]),
			Values:    values,
		})
	}

	variables := make([]string, 0, len(varSet))
	for name := range varSet {
		variables = append(variables, name)
	}
	sort.Strings(variables)

	if len(variables) == 0 {
		return nil, nil, errors.New("没有找到变量列")
	}
	return observations, variables, nil
}

// tableToObservations 把带表头的表格数据转成观察记录。表头必须包含
// content_id 和 coder_id，其余列都当作变量列。
func tableToObservations(rows [][]string) ([]core.Observation, []string, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New("文件内容为空")
	}

	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("缺少必要的列: %s", strings.Join(missing, ", "))
	}

	var variables []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || name == "content_id" || name == "coder_id" {
			continue
		}
		variables = append(variables, name)
	}
	if len(variables) == 0 {
		return nil, nil, errors.New("没有找到变量列")
	}

	observations := make([]core.Observation, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := make(map[string]any, len(variables))
		for _, name := range variables {
			values[name] = cellAt(row, colIndex[name])
		}
		observations = append(observations, core.Observation{
			ContentID: cellAt(row, colIndex["content_id"]),
			CoderID:   cellAt(row, colIndex["coder_id"]),
			Values:    values,
		})
	}
	return observations, variables, nil
}

// Excel行尾的空单元格会被裁掉，越界一律当空串
func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// GroupObservations 为可靠性计算准备观察值：按内容条目分组，跳过少于
// 两名编码员的条目，每名编码员取第一条记录里选定变量的值。
func GroupObservations(observations []core.Observation, selectedVars []string) []map[string]any {
	var contentOrder []string
	byContent := map[string][]core.Observation{}
	for _, obs := range observations {
		if _, ok := byContent[obs.ContentID]; !ok {
			contentOrder = append(contentOrder, obs.ContentID)
		}
		byContent[obs.ContentID] = append(byContent[obs.ContentID], obs)
	}

	var grouped []map[string]any
	for _, contentID := range contentOrder {
		var coderOrder []string
		firstByCoder := map[string]core.Observation{}
		for _, obs := range byContent[contentID] {
			if _, ok := firstByCoder[obs.CoderID]; !ok {
				coderOrder = append(coderOrder, obs.CoderID)
				firstByCoder[obs.CoderID] = obs
			}
		}

		if len(coderOrder) < 2 {
			log.Printf("内容 '%s' 只有一个编码员，跳过", contentID)
			continue
		}

		for _, coderID := range coderOrder {
			obs := firstByCoder[coderID]
			values := map[string]any{}
			for _, name := range selectedVars {
				if value, ok := obs.Values[name]; ok {
					values[name] = value
				}
			}
			if len(values) > 0 {
				grouped = append(grouped, values)
			}
		}
	}
	return grouped
}

// Calculate 对分组后的观察值计算选定方法的可靠性系数。methods 为空时
// 使用 DefaultMethods；尚未实现的方法在结果里标记为 "未实现"。
func Calculate(observations []map[string]any, selectedVars, methods []string) (map[string]any, error) {
	if len(observations) < 2 {
		return nil, ErrNotEnoughObservations
	}
	if len(methods) == 0 {
		methods = DefaultMethods
	}

	// 每个变量观察到的全部取值
	categories := make(map[string][]any, len(selectedVars))
	for _, name := range selectedVars {
		seen := map[any]struct{}{}
		var values []any
		for _, obs := range observations {
			value, ok := obs[name]
			if !ok {
				continue
			}
			if _, dup := seen[value]; !dup {
				seen[value] = struct{}{}
				values = append(values, value)
			}
		}
		categories[name] = values
	}

	results := map[string]any{}
	for _, method := range methods {
		switch method {
		case "百分比一致性":
			results[method] = PercentageAgreement(observations)
		case "Holsti系数":
			// 简化实现，与百分比一致性相同
			results[method] = PercentageAgreement(observations)
		case "Scott's Pi", "Cohen's Kappa":
			results[method] = "未实现"
		case "Krippendorff's Alpha":
			results[method] = AlphaCoefficient(observations, categories)
		default:
			log.Printf("未知的计算方法: %s", method)
		}
	}
	return results, nil
}
