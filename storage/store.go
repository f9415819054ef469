package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"contentCoder/config"
	"contentCoder/core"
)

// ProjectStore 按项目持久化JSON文档。key 是文档名，比如 "variables"
// 或 "reliability_results"，同一个键重复保存会覆盖旧文档。
type ProjectStore interface {
	Save(project, key string, doc any) error
	Load(project, key string) (json.RawMessage, bool, error)
	ListProjects() ([]string, error)
}

// InitProjectStore 根据 STORE 环境变量选择存储后端：
// "postgres" 用 PostgreSQL，"memory" 用进程内存，默认用本地文件。
// 后端初始化失败时退回内存存储，服务照常启动。
func InitProjectStore() ProjectStore {
	storeKind := strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))

	switch storeKind {
	case "postgres":
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Warning: Failed to load config (%v), using memory store\n", err)
			return NewMemoryProjectStore()
		}
		s, err := NewPostgresProjectStore(cfg.PostgresURL)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize postgres store (%v), falling back to memory store\n", err)
			return NewMemoryProjectStore()
		}
		return s
	case "memory":
		return NewMemoryProjectStore()
	default:
		return NewFileProjectStore(core.DataRoot())
	}
}

// ---------------- 文件实现（默认） ----------------

// FileProjectStore 把每个文档存成 <root>/projects/<project>/<key>.json
type FileProjectStore struct {
	root string
}

func NewFileProjectStore(root string) *FileProjectStore {
	return &FileProjectStore{root: root}
}

func (s *FileProjectStore) docPath(project, key string) string {
	return filepath.Join(s.root, "projects", project, key+".json")
}

func (s *FileProjectStore) Save(project, key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化文档失败: %v", err)
	}

	path := s.docPath(project, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建项目目录失败: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文档失败: %v", err)
	}
	return nil
}

func (s *FileProjectStore) Load(project, key string) (json.RawMessage, bool, error) {
	data, err := os.ReadFile(s.docPath(project, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取文档失败: %v", err)
	}
	return json.RawMessage(data), true, nil
}

func (s *FileProjectStore) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "projects"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取项目目录失败: %v", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, nil
}

// ---------------- 内存实现（测试和降级用） ----------------

type MemoryProjectStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]json.RawMessage // project -> key -> doc
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{docs: map[string]map[string]json.RawMessage{}}
}

func (s *MemoryProjectStore) Save(project, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化文档失败: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[project] == nil {
		s.docs[project] = map[string]json.RawMessage{}
	}
	s.docs[project][key] = data
	return nil
}

func (s *MemoryProjectStore) Load(project, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[project][key]
	if !ok {
		return nil, false, nil
	}
	return doc, true, nil
}

func (s *MemoryProjectStore) ListProjects() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]string, 0, len(s.docs))
	for project := range s.docs {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	return projects, nil
}

// ---------------- PostgreSQL实现 ----------------

type PostgresProjectStore struct {
	mu   sync.Mutex // *pgx.Conn 不支持并发使用
	conn *pgx.Conn
}

func NewPostgresProjectStore(dbURL string) (*PostgresProjectStore, error) {
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		host := os.Getenv("POSTGRES_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("POSTGRES_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("POSTGRES_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("POSTGRES_DB")
		if dbname == "" {
			dbname = "contentcoder"
		}
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, dbname)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresProjectStore{conn: conn}
	if err := s.ensureTable(); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *PostgresProjectStore) ensureTable() error {
	ctx := context.Background()

	query := `
		CREATE TABLE IF NOT EXISTS project_documents (
			id SERIAL PRIMARY KEY,
			project VARCHAR(255) NOT NULL,
			key VARCHAR(255) NOT NULL,
			doc JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(project, key)
		);
	`
	if _, err := s.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create project_documents table: %w", err)
	}
	return nil
}

func (s *PostgresProjectStore) Save(project, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化文档失败: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.Exec(context.Background(), `
		INSERT INTO project_documents (project, key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (project, key)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = CURRENT_TIMESTAMP
	`, project, key, data)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *PostgresProjectStore) Load(project, key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc json.RawMessage
	err := s.conn.QueryRow(context.Background(),
		"SELECT doc FROM project_documents WHERE project = $1 AND key = $2",
		project, key).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, true, nil
}

func (s *PostgresProjectStore) ListProjects() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(context.Background(),
		"SELECT DISTINCT project FROM project_documents ORDER BY project")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Close 关闭数据库连接
func (s *PostgresProjectStore) Close() error {
	return s.conn.Close(context.Background())
}
