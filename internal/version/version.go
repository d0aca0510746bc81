// Package version хранит сведения о сборке, заданные через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const serviceName = "quadrental"

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

func GetVersion() string { return version }

func GetCommit() string { return commit }

func GetDate() string { return date }

// ClientID — идентификатор сервиса для брокеров и внешних клиентов.
func ClientID() string {
	return serviceName + "-" + version
}

func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
