package domain

import "errors"

// 致命错误：终止当前文档的处理，批处理中的其他文档继续
var (
	// ErrExtraction 文档包或标记无法读取
	ErrExtraction = errors.New("文档解析失败")
	// ErrRewriteSerialization 修改后的文档无法写出
	ErrRewriteSerialization = errors.New("文档写出失败")
)
