// Package version отдаёт сведения о сборке. Значения задаются через -ldflags:
//
//	-X github.com/vladislavdragonenkov/storefront/internal/version.version=v1.2.0
//
// Если commit и date не заданы, они берутся из VCS-меток бинаря.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var buildInfo = sync.OnceValues(func() (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			modified = setting.Value
		}
	}
	return revision, modified
})

// GetVersion возвращает версию сборки (используется в /healthz).
func GetVersion() string { return version }

func GetCommit() string {
	revision, _ := buildInfo()
	return firstSet(commit, revision)
}

func GetDate() string {
	_, modified := buildInfo()
	return firstSet(date, modified)
}

// String форматирует сведения о сборке для вывода в CLI.
func String() string {
	return fmt.Sprintf("storefront %s (commit %s, built %s)", GetVersion(), GetCommit(), GetDate())
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return unknown
}
