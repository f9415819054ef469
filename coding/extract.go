package coding

import (
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

var errEmptyObject = errors.New("解析结果为空对象")

// ExtractMapping 从模型回复中提取键值映射，依次尝试四种策略：
// 整体解析为JSON对象、提取代码块中的JSON、截取首尾大括号之间的内容、
// 按行解析 key=value。全部失败或结果为空时 ok 为 false，不会报错。
func ExtractMapping(raw string) (map[string]any, bool) {
	m, err := parseJSONObject(raw)
	if err == nil {
		return m, true
	}
	log.Printf("直接解析JSON失败 (%v)，尝试从代码块提取", err)

	if match := fencedJSONRe.FindStringSubmatch(raw); match != nil {
		if m, err := parseJSONObject(match[1]); err == nil {
			return m, true
		}
	}
	log.Printf("代码块提取失败，尝试截取大括号之间的内容")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		if m, err := parseJSONObject(raw[start : end+1]); err == nil {
			return m, true
		}
	}
	log.Printf("解析编码结果失败，尝试按行解析")

	m = parseKeyValueLines(raw)
	if len(m) == 0 {
		return nil, false
	}
	return m, true
}

// parseJSONObject 只接受JSON对象，数组和标量都算失败
func parseJSONObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, errEmptyObject
	}
	return m, nil
}

// parseKeyValueLines 按行解析 "变量名=值" 形式的回复，没有等号的行忽略
func parseKeyValueLines(raw string) map[string]any {
	results := map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if !strings.Contains(line, "=") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		results[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return results
}
