package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/D1-3105/DrainService/api/rpc"
	"github.com/D1-3105/DrainService/conf"
	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/D1-3105/DrainService/pkg/execCmd"
	"github.com/golang/glog"
	"google.golang.org/grpc"
)

func main() {
	flag.Parse()
	if flag.NArg() > 0 {
		os.Exit(runLocal(flag.Args()))
	}
	serve()
}

// runLocal drains one local command, logging its lines, and returns its exit code.
func runLocal(args []string) int {
	defer glog.Flush()
	var drainEnv conf.DrainEnviron
	conf.NewEnviron(&drainEnv)
	var execEnv conf.ExecEnviron
	conf.NewEnviron(&execEnv)

	validator, err := drainCmd.PatternValidator(drainEnv.ErrorPattern)
	if err != nil {
		glog.Errorf("Invalid DRAIN_ERROR_PATTERN: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := execCmd.NewExecCommand(&execEnv, args[0], args[1:]...)
	coordinator := drainCmd.NewCoordinator(drainCmd.WithPollInterval(drainEnv.PollInterval))
	result, err := coordinator.Run(ctx, command, func(line drainCmd.ClassifiedLine) error {
		if line.IsError {
			glog.Error(line.FormatRead())
		} else {
			glog.Info(line.FormatRead())
		}
		return nil
	}, validator)
	if err != nil {
		glog.Errorf("Drain of %s failed: %v", args[0], err)
		if result.ExitStatus > 0 {
			return result.ExitStatus
		}
		return 1
	}
	glog.Infof("%s exited with code: %d", args[0], result.ExitStatus)
	return result.ExitStatus
}

func serve() {
	var grpcEnvriron conf.ServerEnviron
	conf.NewEnviron(&grpcEnvriron)
	lis, err := net.Listen("tcp", grpcEnvriron.GRPCAddr)
	if err != nil {
		glog.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()

	drainSvc := rpc.NewDrainService()

	rpc.RegisterDrainServiceServer(grpcServer, drainSvc)

	glog.Warningf("gRPC server listening on %s", grpcEnvriron.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sig := <-sigCh
	glog.Warningf("Received signal %s, shutting down...", sig)

	cancelled := drainSvc.Jobs.CancelEach()
	glog.Warningf("Cancelled %d running jobs", cancelled)
	grpcServer.GracefulStop()
	glog.Warning("Server stopped")
}
