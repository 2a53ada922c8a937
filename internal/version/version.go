package version

import "fmt"

// Заполняются при сборке:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/perfumery/internal/version.version=v1.2.0 ..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

func GetVersion() string { return version }

func GetCommit() string { return commit }

func GetDate() string { return date }

// String — строка для стартового лога и /healthz.
func String() string {
	return fmt.Sprintf("perfumery-billing %s (commit %s, built %s)", version, commit, date)
}
