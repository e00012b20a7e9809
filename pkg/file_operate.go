package pkg

import (
	"fmt"
	"os"
	"strings"
)

// CheckFileExist 检查文件是否存在
func CheckFileExist(filePath string) (bool, error) {
	_, err := os.Lstat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadTextFile 读取整个文本文件，去掉开头的 UTF-8 BOM
func ReadTextFile(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\xef\xbb\xbf"), nil
}

// WriteTextFile 把文本写入文件，覆盖旧内容
func WriteTextFile(filePath string, text string) error {
	return os.WriteFile(filePath, []byte(text), 0o644)
}
