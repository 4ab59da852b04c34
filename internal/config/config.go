package config

import (
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type Options struct {
	ScreenshotDir string `long:"screenshot-dir" env:"VSA_SCREENSHOT_DIR" description:"Folder where VRChat writes screenshots"`
	OutputDir     string `long:"output-dir" env:"VSA_OUTPUT_DIR" description:"Folder to archive processed screenshots into"`
	LogDir        string `long:"log-dir" env:"VSA_LOG_DIR" description:"VRChat log directory (auto-detected when empty)"`
	NoMetadata    bool   `long:"no-metadata" env:"VSA_NO_METADATA" description:"Disable PNG metadata embedding"`
	Debug         bool   `long:"debug" env:"VSA_DEBUG" description:"Enable verbose debug output"`
}

func ParseOptions() (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	if _, err := flags.Parse(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}