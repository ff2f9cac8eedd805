// Package config manages CLI connection profiles stored under the user's home directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	logconfig "github.com/weisyn/albatross-rpc/internal/config/log"
)

// ErrProfileNotFound 配置不存在
var ErrProfileNotFound = errors.New("profile not found")

// Profile CLI 连接配置
type Profile struct {
	Name    string `json:"name"`
	NodeURL string `json:"node_url"`

	// 凭据，用户名/密码优先于 Secret
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Secret   string `json:"secret,omitempty"`

	Timeout   Duration `json:"timeout"`              // 调用超时
	RateLimit float64  `json:"rate_limit,omitempty"` // 每秒请求数，0 不限流
	RateBurst int      `json:"rate_burst,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`
}

// ClientConfig 转换为客户端配置
func (p *Profile) ClientConfig() client.Config {
	return client.Config{
		NodeURL: p.NodeURL,
		Auth: transport.Auth{
			Username: p.Username,
			Password: p.Password,
			Secret:   p.Secret,
		},
		Timeout:   time.Duration(p.Timeout),
		RateLimit: p.RateLimit,
		RateBurst: p.RateBurst,
	}
}

// LogConfig 转换为日志配置
func (p *Profile) LogConfig() *logconfig.Config {
	user := &logconfig.UserLogConfig{}
	if p.LogLevel != "" {
		user.Level = &p.LogLevel
	}
	if p.LogFile != "" {
		user.FilePath = &p.LogFile
	}
	return logconfig.New(user)
}

// Set 按键名修改字段
func (p *Profile) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "node_url", "url":
		p.NodeURL = value
	case "username":
		p.Username = value
	case "password":
		p.Password = value
	case "secret":
		p.Secret = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		p.Timeout = Duration(d)
	case "rate_limit":
		var rps float64
		if _, err := fmt.Sscan(value, &rps); err != nil {
			return fmt.Errorf("parse rate_limit: %w", err)
		}
		p.RateLimit = rps
	case "rate_burst":
		var burst int
		if _, err := fmt.Sscan(value, &burst); err != nil {
			return fmt.Errorf("parse rate_burst: %w", err)
		}
		p.RateBurst = burst
	case "log_level":
		p.LogLevel = value
	case "log_file":
		p.LogFile = value
	default:
		return fmt.Errorf("unknown profile key %q", key)
	}
	return nil
}

// Redacted 隐藏凭据后的副本，用于展示
func (p *Profile) Redacted() Profile {
	out := *p
	if out.Password != "" {
		out.Password = "***"
	}
	if out.Secret != "" {
		out.Secret = "***"
	}
	return out
}

// Duration 时间duration(支持JSON序列化)
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(dur)
	return nil
}

// ProfileManager Profile管理器
type ProfileManager struct {
	configDir      string
	currentProfile string
	profiles       map[string]*Profile
}

// NewProfileManager 创建Profile管理器，configDir 为空时使用 ~/.albatross
func NewProfileManager(configDir string) (*ProfileManager, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		configDir = filepath.Join(homeDir, ".albatross")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	pm := &ProfileManager{
		configDir: configDir,
		profiles:  make(map[string]*Profile),
	}

	if err := pm.loadProfiles(); err != nil {
		return nil, err
	}

	if err := pm.loadCurrentProfile(); err != nil {
		pm.currentProfile = "local"
	}

	return pm, nil
}

// loadProfiles 加载所有profiles，目录不存在时写入默认配置
func (pm *ProfileManager) loadProfiles() error {
	profilesDir := filepath.Join(pm.configDir, "profiles")

	if _, err := os.Stat(profilesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(profilesDir, 0o700); err != nil {
			return fmt.Errorf("create profiles dir: %w", err)
		}
		if err := pm.createDefaultProfiles(); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isJSONFile(entry.Name()) {
			continue
		}

		profile, err := pm.loadProfile(filepath.Join(profilesDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load profile %s: %v\n", entry.Name(), err)
			continue
		}
		pm.profiles[profile.Name] = profile
	}

	return nil
}

// loadProfile 加载单个profile
func (pm *ProfileManager) loadProfile(filePath string) (*Profile, error) {
	//nolint:gosec // G304: filePath 来自配置目录
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(filePath), ".json")
	}
	if profile.Timeout == 0 {
		profile.Timeout = Duration(transport.DefaultTimeout)
	}

	return &profile, nil
}

// loadCurrentProfile 加载当前profile
func (pm *ProfileManager) loadCurrentProfile() error {
	//nolint:gosec // G304: 路径来自配置目录
	data, err := os.ReadFile(filepath.Join(pm.configDir, "current"))
	if err != nil {
		return err
	}
	pm.currentProfile = strings.TrimSpace(string(data))
	return nil
}

// saveCurrentProfile 保存当前profile
func (pm *ProfileManager) saveCurrentProfile() error {
	return os.WriteFile(filepath.Join(pm.configDir, "current"), []byte(pm.currentProfile), 0o600)
}

// createDefaultProfiles 创建默认profiles
func (pm *ProfileManager) createDefaultProfiles() error {
	profiles := []*Profile{
		{
			Name:    "local",
			NodeURL: "http://127.0.0.1:8648",
			Timeout: Duration(transport.DefaultTimeout),
		},
		{
			Name:    "testnet",
			NodeURL: "https://seed1.pos.nimiq-testnet.com:8648",
			Timeout: Duration(30 * time.Second),
		},
	}

	for _, profile := range profiles {
		if err := pm.SaveProfile(profile); err != nil {
			return err
		}
	}

	pm.currentProfile = "local"
	return pm.saveCurrentProfile()
}

// ConfigDir 配置目录
func (pm *ProfileManager) ConfigDir() string {
	return pm.configDir
}

// CurrentName 当前profile名称
func (pm *ProfileManager) CurrentName() string {
	return pm.currentProfile
}

// GetProfile 获取指定profile
func (pm *ProfileManager) GetProfile(name string) (*Profile, error) {
	profile, exists := pm.profiles[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return profile, nil
}

// GetCurrentProfile 获取当前profile
func (pm *ProfileManager) GetCurrentProfile() (*Profile, error) {
	return pm.GetProfile(pm.currentProfile)
}

// ListProfiles 列出所有profiles，按名称排序
func (pm *ProfileManager) ListProfiles() []string {
	names := make([]string, 0, len(pm.profiles))
	for name := range pm.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SaveProfile 保存profile
func (pm *ProfileManager) SaveProfile(profile *Profile) error {
	if profile.Name == "" || strings.ContainsAny(profile.Name, `/\`) {
		return fmt.Errorf("invalid profile name %q", profile.Name)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	profilePath := filepath.Join(pm.configDir, "profiles", profile.Name+".json")
	if err := os.WriteFile(profilePath, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	pm.profiles[profile.Name] = profile
	return nil
}

// SwitchProfile 切换profile
func (pm *ProfileManager) SwitchProfile(name string) error {
	if _, exists := pm.profiles[name]; !exists {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	pm.currentProfile = name
	return pm.saveCurrentProfile()
}

// DeleteProfile 删除profile，不能删除当前profile
func (pm *ProfileManager) DeleteProfile(name string) error {
	if name == pm.currentProfile {
		return fmt.Errorf("cannot delete current profile")
	}

	profilePath := filepath.Join(pm.configDir, "profiles", name+".json")
	if err := os.Remove(profilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete profile file: %w", err)
	}

	delete(pm.profiles, name)
	return nil
}

// isJSONFile 检查是否是JSON文件
func isJSONFile(name string) bool {
	return filepath.Ext(name) == ".json"
}
