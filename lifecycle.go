// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

// Run starts the worker goroutine (spec §4.F). If Config.StartOnDemand is
// set, concurrent callers race safely: only the first spawns the worker,
// and every caller blocks on the startup condition variable until the
// worker has published startedFlag.
//
// Run does not itself guard against being called twice when StartOnDemand
// is not set — like the source's run(), a second explicit call spawns a
// second worker goroutine. Pair every Run with exactly one Stop.
func (e *Engine) Run() {
	e.startupMu.Lock()

	if e.cfg.StartOnDemand {
		if e.doingStart.LoadRelaxed() {
			for !e.startedFlag.LoadAcquire() {
				e.startupCond.Wait()
			}
			e.startupMu.Unlock()
			return
		}
		e.doingStart.StoreRelaxed(true)
	}

	e.wg.Add(1)
	go e.runLoop()

	for !e.startedFlag.LoadAcquire() {
		e.startupCond.Wait()
	}
	e.startupMu.Unlock()
}

// Stop signals the worker to exit and waits for it to do so (spec §4.E
// "Shutdown"). If the worker has not started, Stop returns without doing
// anything; calling Stop twice after a start is a FatalConfiguration
// error. Descriptors still in flight are the
// caller's responsibility — Stop does not force-complete or drop them
// (spec §9 Open Question, resolved: caller-responsibility).
func (e *Engine) Stop() {
	if !e.startedFlag.LoadAcquire() {
		return
	}
	if e.stopFlag.LoadAcquire() {
		fatalConfiguration("stop called twice on progress engine")
	}
	e.stopFlag.StoreRelease(true)
	e.wg.Wait()
}
