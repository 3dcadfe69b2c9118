package DrainService_listen_job

import (
	"context"

	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/golang/glog"
)

// ListenJob forwards lines from output to send until the output channel is closed.
// It is the only caller of send, so send needs no locking. A send error stops the
// listener and is returned; the caller must then cancel the drain feeding output.
func ListenJob(
	ctx context.Context,
	output *drainCmd.ChannelSink,
	send func(line drainCmd.ClassifiedLine) error,
	jobUUID string,
	finalizer func(),
) error {
	defer finalizer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-output.GetOutputChan():
			if !ok {
				glog.V(1).Infof("Job %s output closed", jobUUID)
				return nil
			}
			if err := send(line); err != nil {
				glog.Errorf("Failed to forward output of job %s: %v", jobUUID, err)
				return err
			}
		}
	}
}
