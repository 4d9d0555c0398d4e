// Package reconcile keeps the accounts of the learning platform in line with
// the directory.
//
// # Run
//
// A run walks through a fixed sequence of states, without backtracking:
//
//  1. LoadTarget: fetch managed target users.
//  2. DetectRemovals: fetch directory identifiers only and plan a suspend for
//     every target user that is gone, unless already suspended or excluded.
//  3. DetermineWatermark: the stored watermark, or the zero time for a full
//     sync.
//  4. LoadSourceDelta: fetch directory entries modified since the watermark.
//  5. ReconcileDelta: map every entry into a candidate user. Unknown logins
//     become creates, known ones become updates when Diff finds a change.
//  6. Execute: apply every action in plan order, isolating failures.
//  7. Commit: persist the run start time as watermark, unless dry-run or
//     aborted.
//
// Failures in states 1 to 4 abort the run with an error wrapping ErrFatal and
// leave the watermark untouched so the next run retries the same window.
//
// # Collaborators
//
// The engine only sees narrow interfaces: SourceReader, TargetReader,
// Mutator, RecordMapper, WatermarkStore and Excluder. Paging, transport and
// attribute semantics live in the implementations.
//
// # Usage Example
//
//	engine, err := reconcile.NewEngine(reconcile.Dependencies{
//	    Source:   ldapReader,
//	    Target:   moodleClient,
//	    Mutator:  moodleClient,
//	    Mapper:   rules,
//	    State:    stateStore,
//	    Excluder: reconcile.ExcludeAuth("manual"),
//	}, logger)
//
//	report, err := engine.Run(ctx, reconcile.Options{DryRun: true})
package reconcile
