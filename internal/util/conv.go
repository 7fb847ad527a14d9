package util

import (
	"fmt"
	"strconv"
)

// ParseID 解析路径中的数字 ID，0 或非法值返回 ErrInvalidInput
func ParseID(name, s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrInvalidInput, name)
	}
	return uint(id), nil
}
