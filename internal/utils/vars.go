package utils

import "regexp"

const DefaultBufferSize = 1024 * 256 // 256KB read buffer per connection
const ToolUserAgent = "splitdl/1.0"
const FallbackFileName = "download"

// Upper bound on workers regardless of CPU count.
const HardWorkerCap = 8

var URLPattern = regexp.MustCompile(`^https?://.+`)
