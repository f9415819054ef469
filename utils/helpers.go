package utils

import (
	"fmt"
	"os"
	"strconv"
)

// ParsePort 解析端口号
func ParsePort(portStr string) (int, error) {
	if portStr == "" {
		return 8080, nil // 默认端口
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("无效的端口号: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("端口号超出范围 (1-65535): %d", port)
	}

	return port, nil
}

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists 检查文件是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
