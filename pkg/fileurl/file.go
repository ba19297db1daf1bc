package fileurl

import (
	"os"
	"path/filepath"
	"strings"
)

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

// CreatePath creates the parent directory chain for the given file path
// CreatePath 为所给文件路径创建父目录
func CreatePath(path string, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// PathSuffixCheckAdd appends the suffix when the path does not end with it
// PathSuffixCheckAdd 路径不以 suffix 结尾时补齐
func PathSuffixCheckAdd(path string, suffix string) string {
	if path == "" {
		return suffix
	}
	if !strings.HasSuffix(path, suffix) {
		return path + suffix
	}
	return path
}

// PathPrefixCheckAdd prepends the prefix when the path does not start with it
// PathPrefixCheckAdd 路径不以 prefix 开头时补齐
func PathPrefixCheckAdd(path string, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return prefix + path
	}
	return path
}
