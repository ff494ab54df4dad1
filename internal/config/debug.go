package config

import "os"

func IsDebug() bool {
	return os.Getenv("BRAIN_DEBUG") == "1"
}
