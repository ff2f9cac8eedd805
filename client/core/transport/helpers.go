package transport

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Auth 节点凭据，二选一：用户名/密码 或 Secret
type Auth struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// IsZero 是否未配置凭据
func (a *Auth) IsZero() bool {
	return a == nil || (a.Username == "" && a.Password == "" && a.Secret == "")
}

// HeaderValue 生成 Authorization 头的值
// 用户名/密码优先，生成 Basic；否则使用 Bearer Secret
func (a *Auth) HeaderValue() string {
	if a.IsZero() {
		return ""
	}
	if a.Username != "" || a.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		return "Basic " + token
	}
	return "Bearer " + a.Secret
}

// buildHeaders 构建请求头
func buildHeaders(auth *Auth, contentType bool) http.Header {
	h := http.Header{}
	if contentType {
		h.Set("Content-Type", "application/json")
	}
	if v := auth.HeaderValue(); v != "" {
		h.Set("Authorization", v)
	}
	return h
}

// normalizeParams 复制参数并保证序列化为数组
// nil 元素保持为 nil，由 encoding/json 输出为 null，位置不变
func normalizeParams(params []any) []any {
	out := make([]any, len(params))
	copy(out, params)
	return out
}

// websocketURL 将节点 HTTP 地址改写为订阅地址：http→ws，https→wss，路径固定为 /ws
func websocketURL(nodeURL string) (*url.URL, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("node url %q has no host", nodeURL)
	}

	u.Path = "/ws"
	u.RawPath = ""
	return u, nil
}

// validateHTTPURL 校验调用地址
func validateHTTPURL(nodeURL string) (*url.URL, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("node url %q has no host", nodeURL)
	}
	return u, nil
}
