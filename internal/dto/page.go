package dto

import (
	"math"

	"Tubely/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest 偏移量分页参数，page从1开始
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest page和limit都必须是正数，limit超过上限按上限处理
func NewPageRequest(page, limit int) (PageRequest, error) {
	if page <= 0 || limit <= 0 {
		return PageRequest{}, apperr.InvalidArgument("page和limit必须是正整数")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

// Offset page过大时乘积会溢出，按math.MaxInt截断，查询结果就是空页
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Page 分页结果，字段名与前端约定一致
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"total_docs"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

func NewPage[T any](docs []T, total int64, req PageRequest) *Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 0
	if req.Limit > 0 {
		totalPages = int((total + int64(req.Limit) - 1) / int64(req.Limit))
	}
	return &Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Page:        req.Page,
		Limit:       req.Limit,
		TotalPages:  totalPages,
		HasNextPage: req.Page < totalPages,
		HasPrevPage: req.Page > 1,
	}
}

// MapPage 把一页模型转换成一页响应结构
func MapPage[M, T any](items []M, total int64, req PageRequest, fn func(*M) T) *Page[T] {
	docs := make([]T, 0, len(items))
	for i := range items {
		docs = append(docs, fn(&items[i]))
	}
	return NewPage(docs, total, req)
}
