package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"contentCoder/core"
	"contentCoder/reliability"
	"contentCoder/storage"
)

// 项目存储里的文档键
const (
	reliabilityDocKey = "reliability_results"
	variablesDocKey   = "variables"
)

// 没有项目上下文时样本文件使用的演示变量名
var defaultSampleVariables = []string{"变量1", "变量2", "变量3"}

// ReliabilityHandlers 可靠性测试相关的HTTP处理器
type ReliabilityHandlers struct {
	store storage.ProjectStore
}

// NewReliabilityHandlers 创建可靠性处理器实例
func NewReliabilityHandlers(store storage.ProjectStore) *ReliabilityHandlers {
	return &ReliabilityHandlers{store: store}
}

// ImportHandler 导入多编码员数据集。文件在 multipart 表单的 file 字段里，
// 支持 .csv、.json 和 .xlsx，解析成功后按项目持久化。
func (h *ReliabilityHandlers) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid multipart form",
			"message": err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	project := r.FormValue("project")
	if project == "" {
		project = "default"
	}

	observations, variables, err := reliability.ParseDataset(header.Filename, file)
	if err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "数据导入失败",
			"message": err.Error(),
		})
		return
	}

	dataset := core.ReliabilityDataset{Data: observations, Variables: variables}
	if err := h.store.Save(project, reliabilityDocKey, dataset); err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "保存数据失败",
			"message": err.Error(),
		})
		return
	}

	core.WriteJSON(w, http.StatusOK, core.ImportResponse{
		Project:   project,
		Rows:      len(observations),
		Variables: variables,
		Status:    "success",
		Message:   fmt.Sprintf("找到 %d 个变量列: %s", len(variables), strings.Join(variables, ", ")),
	})
}

// CalculateHandler 对已导入的数据集计算可靠性系数，结果合并进数据集
// 文档一起保存
func (h *ReliabilityHandlers) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	if req.Project == "" {
		req.Project = "default"
	}

	raw, found, err := h.store.Load(req.Project, reliabilityDocKey)
	if err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "读取数据失败",
			"message": err.Error(),
		})
		return
	}
	if !found {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "请先导入数据"})
		return
	}

	var dataset core.ReliabilityDataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "读取数据失败",
			"message": err.Error(),
		})
		return
	}

	selected := req.Variables
	if len(selected) == 0 {
		selected = dataset.Variables
	}

	observations := reliability.GroupObservations(dataset.Data, selected)
	results, err := reliability.Calculate(observations, selected, req.Methods)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reliability.ErrNotEnoughObservations) {
			status = http.StatusUnprocessableEntity
		}
		core.WriteJSON(w, status, map[string]interface{}{
			"error":   "可靠性计算失败",
			"message": err.Error(),
		})
		return
	}

	if alpha, ok := results["Krippendorff's Alpha"].(float64); ok {
		log.Printf("Krippendorff's Alpha: %.4f (%s)", alpha, reliability.InterpretAlpha(alpha))
	}

	dataset.Results = results
	if err := h.store.Save(req.Project, reliabilityDocKey, dataset); err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "保存计算结果失败",
			"message": err.Error(),
		})
		return
	}

	core.WriteJSON(w, http.StatusOK, core.CalculateResponse{
		Project:      req.Project,
		Results:      results,
		Observations: len(observations),
		Status:       "success",
		Message:      "计算结果已保存",
	})
}

// SampleHandler 导出样本数据文件，格式由 format 参数决定（csv/json/xlsx）。
// 变量名依次取 vars 参数、项目已保存的变量定义、内置演示变量。
func (h *ReliabilityHandlers) SampleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only GET method is supported",
		})
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	varNames := h.sampleVariableNames(r.URL.Query())
	observations := reliability.SampleObservations(varNames)

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="reliability_sample.csv"`)
		if err := reliability.ExportCSV(w, observations, varNames); err != nil {
			log.Printf("导出样本CSV失败: %v", err)
		}
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="reliability_sample.json"`)
		if err := reliability.ExportJSON(w, observations); err != nil {
			log.Printf("导出样本JSON失败: %v", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="reliability_sample.xlsx"`)
		if err := reliability.ExportXLSX(w, observations, varNames); err != nil {
			log.Printf("导出样本Excel失败: %v", err)
		}
	default:
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("不支持的样本格式: %s", format)})
	}
}

func (h *ReliabilityHandlers) sampleVariableNames(query url.Values) []string {
	if vars := query.Get("vars"); vars != "" {
		var names []string
		for _, name := range strings.Split(vars, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}

	if project := query.Get("project"); project != "" {
		if raw, found, err := h.store.Load(project, variablesDocKey); err == nil && found {
			var variables []core.Variable
			if json.Unmarshal(raw, &variables) == nil {
				names := make([]string, 0, len(variables))
				for _, v := range variables {
					names = append(names, v.Name)
				}
				if len(names) > 0 {
					return names
				}
			}
		}
	}

	return defaultSampleVariables
}
