package util

import (
	"Hearth/internal/pkg/consts"
	"strconv"
)

// ParsePagination 将 page/page_size 转换为 limit/offset，非法值回落到默认值
func ParsePagination(page, pageSize string) (limit, offset int) {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = consts.DefaultPage
	}
	size, err := strconv.Atoi(pageSize)
	if err != nil || size < 1 {
		size = consts.DefaultPageSize
	}
	if size > consts.MaxPageSize {
		size = consts.MaxPageSize
	}
	return size, (p - 1) * size
}
