// Package core connects the cleaning pipeline to its adapters.
//
// The command line and HTTP adapters differ only in how they obtain a
// report and where the result goes. Both go through [Service]:
//
//	svc, err := core.NewService(opts, export.New(export.ExcelWriter{}))
//	run, err := svc.CleanFileTo(ctx, path, export.BesideSource)
//	fmt.Println(run.Result.Stats.KeptRows, run.Outcome.Primary())
//
// Every run gets a uuid that is attached to its log entries as run_id.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE007: input problems (missing, unreadable, empty, encoding, wrong type)
//   - EXP001-EXP002: output problems
//   - CFG001: report profile problems
//   - UPL001-UPL005: cancellation, load and timeouts
//
// [ErrCancelled] marks an interactive flow the user abandoned. Adapters
// report it and exit successfully.
//
// # Concurrency
//
// A Service holds no per-run state and is safe for concurrent use.
// [RunLimiter] bounds how many runs the HTTP adapter executes at once.
package core
