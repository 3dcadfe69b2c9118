package rpc

import (
	"context"
	"errors"

	"github.com/D1-3105/DrainService/conf"
	"github.com/D1-3105/DrainService/internal/DrainService_jobs"
	"github.com/D1-3105/DrainService/internal/DrainService_listen_job"
	"github.com/D1-3105/DrainService/internal/proto_utils"
	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/D1-3105/DrainService/pkg/execCmd"
	"github.com/golang/glog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type DrainService struct {
	Jobs     *DrainService_jobs.JobRegistry
	drainEnv conf.DrainEnviron
	execEnv  conf.ExecEnviron
}

func NewDrainService() *DrainService {
	var drainEnv conf.DrainEnviron
	conf.NewEnviron(&drainEnv)
	var execEnv conf.ExecEnviron
	conf.NewEnviron(&execEnv)
	return &DrainService{
		Jobs:     DrainService_jobs.NewJobRegistry(),
		drainEnv: drainEnv,
		execEnv:  execEnv,
	}
}

func (service *DrainService) RunCommand(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	request, err := proto_utils.StructToRunRequest(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	pattern := request.ErrorPattern
	if pattern == "" {
		pattern = service.drainEnv.ErrorPattern
	}
	validator, err := drainCmd.PatternValidator(pattern)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	execEnv := service.execEnv
	if request.WorkingDir != "" {
		execEnv.WorkingDir = request.WorkingDir
	}
	command := execCmd.NewExecCommand(&execEnv, request.Binary, request.Args...)

	jobCtx, cancelJob := context.WithCancelCause(stream.Context())
	defer cancelJob(nil)
	jobUid, finalizer := service.Jobs.AddJob(request.Binary, cancelJob)
	defer finalizer()
	jobID := jobUid.String()
	glog.Infof("DrainService.RunCommand: job uid: %s", jobID)

	if err := service.send(stream, proto_utils.Event{Kind: proto_utils.EventStarted, JobID: jobID}); err != nil {
		return err
	}

	output := drainCmd.NewChannelSink(jobCtx, service.drainEnv.LineBuffer)
	listenDone := make(chan error, 1)
	go func() {
		err := DrainService_listen_job.ListenJob(
			jobCtx, output,
			func(line drainCmd.ClassifiedLine) error {
				return service.send(stream, proto_utils.Event{Kind: proto_utils.EventLine, JobID: jobID, Line: line})
			},
			jobID,
			// finalizer
			func() {
				glog.V(1).Infof("DrainService.RunCommand: listener of job %s finished", jobID)
			},
		)
		if err != nil {
			// nobody reads the sink anymore, stop the drain
			cancelJob(err)
		}
		listenDone <- err
	}()

	coordinator := drainCmd.NewCoordinator(drainCmd.WithPollInterval(service.drainEnv.PollInterval))
	result, drainErr := coordinator.Run(jobCtx, command, output.Handle, validator)
	output.Close()
	listenErr := <-listenDone

	if drainErr != nil {
		glog.Errorf("DrainService.RunCommand: job %s: %v", jobID, drainErr)
		return drainStatus(jobCtx, drainErr)
	}
	if listenErr != nil {
		if jobCtx.Err() != nil {
			return drainStatus(jobCtx, &drainCmd.CancelledError{Cause: context.Cause(jobCtx)})
		}
		return status.Error(codes.Unavailable, listenErr.Error())
	}
	glog.Infof("Job %s exited with code: %d", jobID, result.ExitStatus)
	return service.send(stream, proto_utils.Event{Kind: proto_utils.EventExit, JobID: jobID, ExitCode: result.ExitStatus})
}

func (service *DrainService) CancelJob(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["job_id"].GetStringValue()
	if err := service.Jobs.CancelJob(id); err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	glog.Infof("DrainService.CancelJob: job uid: %s", id)
	return structpb.NewStruct(map[string]any{"job_id": id, "cancelled": true})
}

func (service *DrainService) send(stream grpc.ServerStreamingServer[structpb.Struct], ev proto_utils.Event) error {
	msg, err := proto_utils.EventToStruct(ev)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.Send(msg)
}

func drainStatus(jobCtx context.Context, err error) error {
	var cancelled *drainCmd.CancelledError
	var failed *drainCmd.DrainFailedError
	switch {
	case errors.As(err, &cancelled):
		if errors.Is(context.Cause(jobCtx), DrainService_jobs.ErrJobCancelled) {
			return status.Error(codes.Canceled, DrainService_jobs.ErrJobCancelled.Error())
		}
		return status.Error(codes.Canceled, err.Error())
	case errors.As(err, &failed):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
}
