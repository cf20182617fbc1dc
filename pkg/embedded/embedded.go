// Package embedded 提供嵌入配置的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让其他包可以访问嵌入的配置。
//
// 读取顺序：磁盘上的同名文件优先（便于现场调整编排），其次是嵌入的 data/。
// assets/（纹理、音效）体积较大，不嵌入，只从磁盘读取。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	dataFS      fs.FS
	initialized bool
)

var errNotInitialized = errors.New("embedded package not initialized, call Init() first")

// Init 设置嵌入的 data 文件系统
// 必须在 main() 开始时、任何配置加载之前调用
func Init(data fs.FS) {
	dataFS = data
	initialized = true
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

func normalize(path string) string {
	// embed.FS 使用正斜杠
	path = filepath.ToSlash(path)
	return strings.TrimPrefix(path, "./")
}

// Open 打开文件，磁盘优先
func Open(path string) (fs.File, error) {
	if f, err := os.Open(path); err == nil {
		return f, nil
	}

	path = normalize(path)
	if !strings.HasPrefix(path, "data/") {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	if !initialized {
		return nil, errNotInitialized
	}
	return dataFS.Open(path)
}

// ReadFile 读取文件内容，磁盘优先
func ReadFile(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	path = normalize(path)
	if !strings.HasPrefix(path, "data/") {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	if !initialized {
		return nil, errNotInitialized
	}
	return fs.ReadFile(dataFS, path)
}

// Exists 检查文件是否存在（磁盘或嵌入）
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}
