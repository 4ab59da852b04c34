package app

import "errors"

var (
	ErrScreenshotDirUnavailable = errors.New("screenshot folder is not an accessible directory")
	ErrOutputDirRequired        = errors.New("output folder is required")
)
