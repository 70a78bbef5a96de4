package main

import (
	"fmt"

	"github.com/muralwl/mural/internal/codec"
	"github.com/muralwl/mural/internal/compositor"
)

// defaultFormat is used when -f/--format is not given: xrgb, the most
// broadly supported wl_shm format (per the CLI help text).
func defaultFormat() codec.PixelFormat {
	return codec.Xrgb
}

// parseFormat maps the daemon CLI's -f/--format values to the internal
// pixel format, per original_source/daemon/src/cli.rs's accepted set.
func parseFormat(s string) (codec.PixelFormat, error) {
	switch s {
	case "xrgb":
		return codec.Xrgb, nil
	case "xbgr":
		return codec.Xbgr, nil
	case "rgb":
		return codec.Rgb, nil
	case "bgr":
		return codec.Bgr, nil
	default:
		return 0, fmt.Errorf("`--format` command line option must be one of: 'xrgb', 'xbgr', 'rgb' or 'bgr'")
	}
}

// compositorFormat maps a codec.PixelFormat to the wl_shm format the
// compositor's pools are created with.
func compositorFormat(f codec.PixelFormat) compositor.PixelFormat {
	switch f {
	case codec.Xrgb:
		return compositor.FormatXRGB8888
	case codec.Xbgr:
		return compositor.FormatXBGR8888
	case codec.Rgb:
		return compositor.FormatRGB888
	case codec.Bgr:
		return compositor.FormatBGR888
	default:
		return compositor.FormatXRGB8888
	}
}
