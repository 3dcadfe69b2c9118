package conf

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type DrainEnviron struct {
	PollInterval time.Duration `env:"DRAIN_POLL_INTERVAL" envDefault:"100ms"`
	LineBuffer   int           `env:"DRAIN_LINE_BUFFER" envDefault:"100"`
	ErrorPattern string        `env:"DRAIN_ERROR_PATTERN"`
}

type ExecEnviron struct {
	WorkingDir string `env:"EXEC_WORKING_DIR"`
	InheritEnv bool   `env:"EXEC_INHERIT_ENV" envDefault:"true"`
}

type ServerEnviron struct {
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":50051"`
}

func NewEnviron(environ any) {
	if err := env.Parse(environ); err != nil {
		panic(err)
	}
}
