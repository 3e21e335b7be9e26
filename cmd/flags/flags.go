// Package flags 保存命令行覆盖项，优先级高于配置文件与环境变量。
package flags

var (
	Listen         string
	DatabaseDriver string
	DatabaseDSN    string
)
