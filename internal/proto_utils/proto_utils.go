package proto_utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"google.golang.org/protobuf/types/known/structpb"
)

type EventKind string

const (
	EventStarted EventKind = "started"
	EventLine    EventKind = "line"
	EventExit    EventKind = "exit"
)

// Event is one message of a RunCommand stream.
type Event struct {
	Kind     EventKind
	JobID    string
	Line     drainCmd.ClassifiedLine
	ExitCode int
}

type RunRequest struct {
	Binary       string
	Args         []string
	ErrorPattern string
	WorkingDir   string
}

var ErrMissingBinary = errors.New("binary is required")

func RunRequestToStruct(req RunRequest) (*structpb.Struct, error) {
	args := make([]any, 0, len(req.Args))
	for _, arg := range req.Args {
		args = append(args, arg)
	}
	return structpb.NewStruct(map[string]any{
		"binary":        req.Binary,
		"args":          args,
		"error_pattern": req.ErrorPattern,
		"working_dir":   req.WorkingDir,
	})
}

func StructToRunRequest(msg *structpb.Struct) (RunRequest, error) {
	fields := msg.GetFields()
	req := RunRequest{
		Binary:       fields["binary"].GetStringValue(),
		ErrorPattern: fields["error_pattern"].GetStringValue(),
		WorkingDir:   fields["working_dir"].GetStringValue(),
	}
	if req.Binary == "" {
		return req, ErrMissingBinary
	}
	for i, value := range fields["args"].GetListValue().GetValues() {
		arg, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return req, fmt.Errorf("args[%d] is not a string", i)
		}
		req.Args = append(req.Args, arg.StringValue)
	}
	return req, nil
}

func EventToStruct(ev Event) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":   string(ev.Kind),
		"job_id": ev.JobID,
	}
	switch ev.Kind {
	case EventLine:
		fields["is_error"] = ev.Line.IsError
		fields["text"] = ev.Line.Text
		fields["stream"] = ev.Line.Stream.String()
		fields["timestamp"] = ev.Line.Time.UnixMilli()
	case EventExit:
		fields["exit_code"] = ev.ExitCode
	}
	return structpb.NewStruct(fields)
}

func StructToEvent(msg *structpb.Struct) (Event, error) {
	fields := msg.GetFields()
	ev := Event{
		Kind:  EventKind(fields["kind"].GetStringValue()),
		JobID: fields["job_id"].GetStringValue(),
	}
	switch ev.Kind {
	case EventStarted:
	case EventLine:
		ev.Line = drainCmd.ClassifiedLine{
			IsError: fields["is_error"].GetBoolValue(),
			Text:    fields["text"].GetStringValue(),
			Stream:  parseStream(fields["stream"].GetStringValue()),
			Time:    time.UnixMilli(int64(fields["timestamp"].GetNumberValue())),
		}
	case EventExit:
		ev.ExitCode = int(fields["exit_code"].GetNumberValue())
	default:
		return ev, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return ev, nil
}

func parseStream(name string) drainCmd.ProcessOutType {
	switch name {
	case drainCmd.StdOut.String():
		return drainCmd.StdOut
	case drainCmd.StdErr.String():
		return drainCmd.StdErr
	default:
		return 0
	}
}
