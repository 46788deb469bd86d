//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		filepath.Join(local, "perfmon", "config.yaml"),
		filepath.Join(programData, "perfmon", "perfmon.yaml"),
	}
}

func defaultOutputDir() string {
	if home := os.Getenv("USERPROFILE"); home != "" {
		return filepath.Join(home, "Documents", "perfmon")
	}
	return "."
}
