package core

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00"},
		{4.5, "00:04"},
		{65, "01:05"},
		{3725, "62:05"},
		{-3, "00:00"},
	}

	for _, c := range cases {
		if got := FormatTime(c.sec); got != c.want {
			t.Errorf("FormatTime(%v): expected %q, got %q", c.sec, c.want, got)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]string{"url": "https://example.com/?a=1&b=2", "标签": "正面"})

	if rec.Code != 201 {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Unexpected content type: %q", got)
	}

	body := rec.Body.String()
	// HTML字符不转义，中文原样输出
	if strings.Contains(body, `&`) {
		t.Errorf("Expected & to stay unescaped, got %s", body)
	}
	if !strings.Contains(body, "正面") {
		t.Errorf("Expected raw UTF-8 output, got %s", body)
	}
}
