package server

import (
	"encoding/json"
	"net/http"

	"contentCoder/core"
	"contentCoder/storage"
)

// ProjectHandlers 项目文档的通用读写接口，编码方案、编码结果等
// 都以JSON文档的形式按项目保存
type ProjectHandlers struct {
	store storage.ProjectStore
}

// NewProjectHandlers 创建项目处理器实例
func NewProjectHandlers(store storage.ProjectStore) *ProjectHandlers {
	return &ProjectHandlers{store: store}
}

// SaveHandler 保存项目文档
func (h *ProjectHandlers) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.ProjectSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if req.Project == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "project is required"})
		return
	}
	if req.Key == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	if req.Document == nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "document is required"})
		return
	}

	if err := h.store.Save(req.Project, req.Key, req.Document); err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "保存文档失败",
			"message": err.Error(),
		})
		return
	}

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"project": req.Project,
		"key":     req.Key,
		"status":  "success",
	})
}

// GetHandler 读取项目文档
func (h *ProjectHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only GET method is supported",
		})
		return
	}

	project := r.URL.Query().Get("project")
	key := r.URL.Query().Get("key")
	if project == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "project is required"})
		return
	}
	if key == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	doc, found, err := h.store.Load(project, key)
	if err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "读取文档失败",
			"message": err.Error(),
		})
		return
	}
	if !found {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "文档不存在"})
		return
	}

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"project":  project,
		"key":      key,
		"document": doc,
		"status":   "success",
	})
}

// ListHandler 列出所有项目
func (h *ProjectHandlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only GET method is supported",
		})
		return
	}

	projects, err := h.store.ListProjects()
	if err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "读取项目列表失败",
			"message": err.Error(),
		})
		return
	}
	if projects == nil {
		projects = []string{}
	}

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
		"status":   "success",
	})
}
