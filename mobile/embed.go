//go:build mobile

// embed.go - 移动端配置嵌入声明
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 构建前需把 data/viewer.yaml 与 data/choreography.yaml 复制到 mobile/data/。
//
//	go build -tags mobile ./mobile
package mobile

import "embed"

//go:embed data/viewer.yaml data/choreography.yaml
var dataFS embed.FS
