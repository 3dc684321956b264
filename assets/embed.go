package assets

import "embed"

// AssetsFS holds the stylesheet and scripts served under /assets/.
//
//go:embed css js
var AssetsFS embed.FS
