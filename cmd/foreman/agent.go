package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/config"
	"github.com/voidshard/foreman/internal/utils"
	"github.com/voidshard/foreman/pkg/agent"
	"github.com/voidshard/foreman/pkg/api/http/client"
	"github.com/voidshard/foreman/pkg/executor"
)

type optsAgent struct {
	optsGeneral

	CoordinatorURL string `long:"coordinator-url" env:"COORDINATOR_URL" description:"URL of the coordinator" default:"http://localhost:8100"`
	TLSCaCert      string `long:"ca-cert" env:"CA_CERT" description:"Path to a CA certificate trusted for the coordinator"`
	Insecure       bool   `long:"insecure" env:"INSECURE" description:"Don't verify the coordinator's certificate"`

	Machine string `long:"machine" env:"MACHINE" description:"Machine name, defaults to the hostname"`
	Name    string `long:"name" env:"AGENT_NAME" description:"Agent name, defaults to <machine>-Agent#<pid>"`

	ExecutorDirectory string        `long:"executor-directory" env:"EXECUTOR_DIRECTORY" description:"Directory holding one sub directory per executor" default:"TaskExecutors"`
	ExecutorTimeout   time.Duration `long:"executor-timeout" env:"EXECUTOR_TIMEOUT" description:"Kill an executor that writes nothing for this long" default:"60s"`
	TestExecutor      bool          `long:"test-executor" env:"TEST_EXECUTOR" description:"Also run the in process test executor"`

	UpdateLockPeriod    time.Duration `long:"update-lock-period" env:"UPDATE_LOCK_PERIOD" description:"How often the current task's lease is renewed" default:"15s"`
	HeartbeatPeriod     time.Duration `long:"heartbeat-period" env:"HEARTBEAT_PERIOD" description:"How often health records are sent" default:"30s"`
	ReconnectMaxBackoff time.Duration `long:"reconnect-max-backoff" env:"RECONNECT_MAX_BACKOFF" description:"Upper bound of the random wait before reconnecting" default:"5s"`
	RetryDelay          time.Duration `long:"retry-delay" env:"RETRY_DELAY" description:"Wait between failed connection attempts" default:"10s"`
}

func (c *optsAgent) Execute(args []string) error {
	cfg, flush, err := c.setup()
	if err != nil {
		return err
	}
	defer flush()

	tlsCfg, err := utils.ClientTLSConfig(c.TLSCaCert, c.Insecure)
	if err != nil {
		return err
	}
	transport, err := client.New(c.CoordinatorURL, tlsCfg)
	if err != nil {
		return err
	}

	runner, err := executor.NewSupervisor(&executor.Options{
		Directory:   c.ExecutorDirectory,
		Timeout:     c.ExecutorTimeout,
		Credentials: credentials(cfg.Credentials),
	})
	if err != nil {
		return err
	}

	opts := &agent.Options{
		Machine:             c.Machine,
		Name:                c.Name,
		UpdateLockPeriod:    c.UpdateLockPeriod,
		HeartbeatPeriod:     c.HeartbeatPeriod,
		ReconnectMaxBackoff: c.ReconnectMaxBackoff,
		RetryDelay:          c.RetryDelay,
	}
	if c.TestExecutor {
		opts.ExtraCapabilities = []string{executor.TestExecutorType}
	}
	session := agent.NewSession(transport, runner, opts)

	ctx, cancel := signalContext()
	defer cancel()

	zap.L().Info("agent starting",
		zap.String("agent", session.Name()),
		zap.String("coordinator", c.CoordinatorURL),
		zap.Strings("capabilities", session.Capabilities()),
	)
	err = session.Run(ctx)
	runner.Terminate()
	return err
}

func credentials(in []config.CredentialConfig) map[string]*executor.Credentials {
	out := map[string]*executor.Credentials{}
	for _, c := range in {
		out[c.AppID] = &executor.Credentials{Username: c.Username, Password: c.Password, APIKey: c.APIKey}
	}
	return out
}
