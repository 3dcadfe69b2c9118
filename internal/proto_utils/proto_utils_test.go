package proto_utils

import (
	"testing"
	"time"

	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestRunRequestStruct(t *testing.T) {
	msg, err := RunRequestToStruct(RunRequest{Binary: "/bin/sh", Args: []string{"-c", "echo hi"}, ErrorPattern: "warn"})
	require.NoError(t, err)

	// the struct must survive the wire
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)
	decoded := new(structpb.Struct)
	require.NoError(t, proto.Unmarshal(raw, decoded))

	req, err := StructToRunRequest(decoded)
	require.NoError(t, err)
	assert.Equal(t, RunRequest{Binary: "/bin/sh", Args: []string{"-c", "echo hi"}, ErrorPattern: "warn"}, req)
}

func TestStructToRunRequestValidation(t *testing.T) {
	_, err := StructToRunRequest(&structpb.Struct{})
	assert.ErrorIs(t, err, ErrMissingBinary)

	msg, err := structpb.NewStruct(map[string]any{"binary": "ls", "args": []any{"-l", 3}})
	require.NoError(t, err)
	_, err = StructToRunRequest(msg)
	assert.ErrorContains(t, err, "args[1]")
}

func TestLineEvent(t *testing.T) {
	ts := time.UnixMilli(1714564800123)
	msg, err := EventToStruct(Event{
		Kind:  EventLine,
		JobID: "job-1",
		Line:  drainCmd.ClassifiedLine{IsError: true, Text: "retry-warning", Stream: drainCmd.StdOut, Time: ts},
	})
	require.NoError(t, err)

	ev, err := StructToEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, EventLine, ev.Kind)
	assert.Equal(t, "job-1", ev.JobID)
	assert.True(t, ev.Line.IsError)
	assert.Equal(t, "retry-warning", ev.Line.Text)
	assert.Equal(t, drainCmd.StdOut, ev.Line.Stream)
	assert.True(t, ts.Equal(ev.Line.Time))
}

func TestExitEvent(t *testing.T) {
	msg, err := EventToStruct(Event{Kind: EventExit, JobID: "job-2", ExitCode: 17})
	require.NoError(t, err)
	ev, err := StructToEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, 17, ev.ExitCode)
	assert.Empty(t, ev.Line.Text)
}

func TestUnknownEvent(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{"kind": "bogus"})
	require.NoError(t, err)
	_, err = StructToEvent(msg)
	assert.Error(t, err)
}
