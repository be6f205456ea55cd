// Package sharedresource coordinates parallel test workers on one host
// around a single expensive action, such as an in-place upgrade of the
// system under test.
//
// Every participant opens the same named resource. The first one to
// register becomes the leader; the rest follow. Each participant calls
// Ready once its own setup is finished. The leader runs the action only
// after every registered watcher is ready and then publishes the result;
// followers block in Ready until the result is known.
//
// All coordination happens through one JSON state file,
// <dir>/<name>.shared, guarded by flock(2) on the file itself:
//
//	{
//	  "watchers": ["3f2a...", "9c01..."],
//	  "statuses": {"3f2a...": "ready", "9c01...": "pending"},
//	  "main_watcher": "3f2a...",
//	  "main_status": "waiting"
//	}
//
// # Usage
//
//	err := sharedresource.Run(ctx, "upgrade", sharedresource.ActionFunc(upgrade),
//	    func(ctx context.Context, r *sharedresource.Resource) error {
//	        if err := prepare(); err != nil {
//	            return err
//	        }
//	        return r.Ready(ctx)
//	    },
//	    sharedresource.WithRecoverable(true),
//	)
//
// # Failover
//
// With WithRecoverable(true), a failed action publishes "action_error"
// instead of "error". A ready follower then claims leadership under the
// lock, publishes "recovering" and runs the action again. The failed
// leader steps down and returns normally if the retry succeeds.
//
// The coordinator does not time out and does not detect crashed
// participants. Callers bound waits through the context they pass in.
//
// A first episode starts only once every watcher is "ready". A watcher
// that exits with an error before then is never ready, so the leader
// waits until its context ends, logging the failed ids at WARN. A
// recovering leader also accepts "done" and "error" watchers.
package sharedresource
