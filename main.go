package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"contentCoder/coding"
	"contentCoder/config"
	"contentCoder/core"
	"contentCoder/reliability"
	"contentCoder/server"
	"contentCoder/storage"
	"contentCoder/utils"
)

// initModelClient 初始化模型客户端，未配置API密钥时返回nil
func initModelClient(cfg *config.Config) coding.ModelClient {
	if !cfg.HasValidAPI() {
		config.PrintConfigInstructions()
		log.Printf("Warning: 未配置API密钥，自动编码接口将不可用")
		return nil
	}
	client, err := coding.NewOpenAIModelClient(cfg)
	if err != nil {
		log.Printf("Warning: 初始化模型客户端失败: %v", err)
		return nil
	}
	log.Printf("Model client initialized: %s", cfg.BaseURL)
	return client
}

func main() {
	if err := utils.EnsureDir(core.DataRoot()); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化项目存储
	store := storage.InitProjectStore()
	backend := os.Getenv("STORE")
	if backend == "" {
		backend = "file"
	}
	log.Printf("Project store initialized: %s", backend)

	// 初始化编码协调器
	orchestrator := coding.NewCodingOrchestrator(initModelClient(cfg), cfg)

	codingHandlers := server.NewCodingHandlers(orchestrator)
	reliabilityHandlers := server.NewReliabilityHandlers(store)
	projectHandlers := server.NewProjectHandlers(store)

	// Routes
	http.HandleFunc("/code-text", codingHandlers.CodeTextHandler)
	http.HandleFunc("/code-video", codingHandlers.CodeVideoHandler)
	http.HandleFunc("/analyze-video", codingHandlers.AnalyzeVideoHandler)
	http.HandleFunc("/suggest", codingHandlers.SuggestHandler)

	// 信度检验路由
	http.HandleFunc("/reliability-import", reliabilityHandlers.ImportHandler)
	http.HandleFunc("/reliability-calculate", reliabilityHandlers.CalculateHandler)
	http.HandleFunc("/reliability-sample", reliabilityHandlers.SampleHandler)

	// 项目文档路由
	http.HandleFunc("/project-save", projectHandlers.SaveHandler)
	http.HandleFunc("/project-load", projectHandlers.GetHandler)
	http.HandleFunc("/projects", projectHandlers.ListHandler)

	// 健康检查
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		core.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "healthy",
			"store":          backend,
			"api_configured": cfg.HasValidAPI(),
			"time":           time.Now().Format(time.RFC3339),
		})
	})

	// Check for command line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "sample":
			// 生成信度检验示例数据
			log.Println("生成信度检验示例数据...")
			writeSampleFiles()
			return

		default:
			log.Printf("未知参数: %s\n", os.Args[1])
			log.Println("可用参数:")
			log.Println("  sample - 生成信度检验示例数据文件")
			return
		}
	}

	port, err := utils.ParsePort(os.Getenv("PORT"))
	if err != nil {
		log.Fatalf("解析端口失败: %v", err)
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

// writeSampleFiles 在数据目录下生成CSV、JSON和Excel三种格式的示例数据
func writeSampleFiles() {
	varNames := []string{"变量1", "变量2", "变量3"}
	observations := reliability.SampleObservations(varNames)

	writeSampleFile("reliability_sample.csv", func(f *os.File) error {
		return reliability.ExportCSV(f, observations, varNames)
	})
	writeSampleFile("reliability_sample.json", func(f *os.File) error {
		return reliability.ExportJSON(f, observations)
	})
	writeSampleFile("reliability_sample.xlsx", func(f *os.File) error {
		return reliability.ExportXLSX(f, observations, varNames)
	})
}

func writeSampleFile(name string, export func(*os.File) error) {
	path := filepath.Join(core.DataRoot(), name)
	if utils.FileExists(path) {
		log.Printf("覆盖已有文件: %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		log.Printf("创建示例文件失败: %v", err)
		return
	}
	defer f.Close()
	if err := export(f); err != nil {
		log.Printf("写入示例文件失败: %v", err)
		return
	}
	log.Printf("已生成示例文件: %s", path)
}
