// Package worker provides two fixed-size goroutine pools. SequentialPool runs
// tasks of the same group strictly in order while different groups run in
// parallel. Pool runs independent tasks from one shared FIFO and hands back a
// Future per task.
//
// # Overview
//
// Tasks are posted with a group key. The pool guarantees, per group:
//   - FIFO: tasks run in the order they were posted
//   - Exclusion: at most one task of the group runs at any time
//
// Groups that have work wait in a ready FIFO, so no group starves another: after
// each task the group goes to the back of the ready queue if it still has work.
//
// # Quick Start
//
//	pool := worker.NewSequentialPool[string](8,
//		worker.WithLogger(logger),
//		worker.WithMetricsRegistry(registry, "sessions"),
//	)
//	defer pool.Close()
//
//	_ = pool.PostFunc("session-42", func() { apply(update) })
//
// # Retry
//
// A Task returns Done or Retry. Retry keeps the task at the front of its group and
// sends the group to the back of the ready queue; nothing else from that group runs
// until the task finally returns Done:
//
//	_ = pool.Post(conn, func() worker.TaskReply {
//		if err := flush(conn); iox.IsWouldBlock(err) {
//			return worker.Retry
//		}
//		return worker.Done
//	})
//
// There is no backoff between attempts.
//
// # Shutdown
//
// Shutdown stops accepting posts (Post returns ErrPoolStopped) and joins the
// workers. Two modes exist:
//   - Graceful (default): every task already posted runs to completion
//   - Immediate: running tasks finish, queued tasks are dropped and counted
//
// WaitForDone and Close use the mode set with WithShutdownMode. Calling Shutdown
// from inside a task deadlocks.
//
// # Panics
//
// A panicking task is recovered, logged with its stack at error level and treated
// as Done, so its group continues with the next task.
//
// # Pool
//
// Pool has no groups: any idle worker takes the next task. Submit returns a Future
// carrying the task's value and error:
//
//	pool := worker.NewPool(4)
//	f, err := worker.Submit(pool, func(ctx context.Context) ([]byte, error) {
//		return json.Marshal(summary)
//	})
//	...
//	data, err := f.Wait(ctx)
//
// WaitForDone stops accepting tasks and runs everything already queued.
// Terminate drops queued tasks (their futures resolve with ErrTaskDropped),
// cancels the context handed to running tasks and returns the drop count.
// Submitting after either returns ErrPoolStopped.
//
// # Observability
//
// Stats() reports posted, completed, retried, dropped and panicked task counts
// plus the pending task count. WithMetricsRegistry exports the same values and a
// task duration histogram under the "worker" subsystem.
package worker
